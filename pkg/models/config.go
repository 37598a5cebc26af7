package models

const DefaultAPIURL = "https://www.iot-lab.info/rest/"

type Settings struct {
	APIURL   string `mapstructure:"api-url"`
	RCFile   string `mapstructure:"rcfile"`
	Proxy    string `mapstructure:"proxy"`
	LogLevel string `mapstructure:"loglevel"`
}

type Credentials struct {
	Username string
	Password string
}

// Empty tells if no username is set. A password alone is useless.
func (c Credentials) Empty() bool {
	return c.Username == ""
}
