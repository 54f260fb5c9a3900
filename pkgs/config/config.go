package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Hardware describes which board pins the signal generator, track power
// switch, decoder sleep/reset line, current-sense ADC channel, and RailCom
// UART are wired to. pkgs/app builds its hal backend from pkgs/simhw and
// does not read these fields.
type Hardware struct {
	SigPin uint8
	PwrPin uint8
	SlpPin uint8
	AdcPin uint8
	UartTx uint8
	UartRx uint8
}

type Configuration struct {
	Hardware Hardware

	// Loco describes a contextual configuration of current locomotive
	Loco Loco
}

type Loco struct {
	LocoAddr    uint16
	DecoderType string
	FuncMax     uint8
}

// LocoAddr represents a locomotive address
type LocoAddr uint16

func NewConfig() (*Configuration, error) {
	config := Configuration{}
	config.Loco = Loco{}

	// application configuration
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(".dccstation")
	v.AddConfigPath("$HOME/")
	v.AddConfigPath(".")
	_ = v.SafeWriteConfig()

	v.SetDefault("hardware.sigpin", 18)
	v.SetDefault("hardware.pwrpin", 23)
	v.SetDefault("hardware.slppin", 24)
	v.SetDefault("hardware.adcpin", 0)
	v.SetDefault("hardware.uarttx", 14)
	v.SetDefault("hardware.uartrx", 15)

	// contextual locomotive configuration (when current working directory is a locomotive directory that contains loco.json file)
	l := viper.New()
	l.SetConfigType("json")
	l.SetConfigName("loco")
	l.AddConfigPath(".")
	l.ReadInConfig()

	// read both configuration files
	if err := v.ReadInConfig(); err != nil {
		return &Configuration{}, fmt.Errorf("cannot parse config: %s", err.Error())
	}
	if err := v.Unmarshal(&config); err != nil {
		return &config, fmt.Errorf("cannot parse config: %s", err.Error())
	}
	if err := l.ReadInConfig(); err != nil {
		// make loco.json fully optional
		if !strings.Contains(err.Error(), "Not Found") {
			return &Configuration{}, fmt.Errorf("cannot parse config: %s", err.Error())
		}
	}
	if err := l.Unmarshal(&config.Loco); err != nil {
		return &config, fmt.Errorf("cannot parse config: %s", err.Error())
	}

	return &config, nil
}
