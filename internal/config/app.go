package config

type AppConfig struct {
	Server ServerConfig
	Debate DebateConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	debateCfg, err := LoadDebate()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Debate: debateCfg,
		Log:    logCfg,
	}, nil
}
