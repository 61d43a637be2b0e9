package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Report sink names accepted by REPORT_SINKS.
const (
	SinkLog     = "log"
	SinkSerial  = "serial"
	SinkMQTT    = "mqtt"
	SinkDisplay = "display"
)

// Temperature sensor names accepted by TEMP_SENSOR.
const (
	TempSensorDS18B20 = "ds18b20"
	TempSensorBMX280  = "bmxx80"
)

// Config holds all application configuration values.
type Config struct {
	// Growth model
	GroundReferenceCm  float64
	GrowthRateCmPerDay float64
	ElapsedDays        int
	HeightGuardCm      float64
	DutyCycleThreshold int

	// Timing (milliseconds)
	BehindScheduleDelayMS int
	IterationDelayMS      int
	SensorTimeoutMS       int // 0 waits forever
	ActuatorTimeoutMS     int // bounds one gantry move; 0 waits forever
	DayAdvanceIntervalMS  int // 0 disables the automatic day ticker

	// Bands
	TempLowC        float64
	TempHighC       float64
	TempFaultValues []float64
	LightLowLux     float64
	LightGoodLux    float64

	// Stepper motors (4 GPIO names each)
	StepperAPins       []string
	StepperBPins       []string
	StepsPerRevolution int
	StepDelayMS        int

	// HC-SR04
	HCSR04TriggerPin    string
	HCSR04EchoPin       string
	HCSR04EchoTimeoutMS int
	SpeedOfSoundCmPerUs float64

	// Temperature
	TempSensor            string
	DS18B20OneWireBus     string
	DS18B20Address        uint64 // 0 picks the first device found
	DS18B20ResolutionBits int
	BMX280I2CAddr         uint16

	// I2C peripherals
	I2CBus         string
	ADS1115I2CAddr uint16
	GasADCChannel  int
	TSL2561I2CAddr uint16

	// Reporting
	ReportSinks    []string
	SerialPort     string
	SerialBaudRate int
	DisplayLines   int

	// MQTT
	MQTTBroker      string
	MQTTClientID    string
	ReportTopic     string
	DayAdvanceTopic string

	// Logging
	LogLevel string
}

// Package-level singleton, same access pattern as every binary in this repo:
// InitGlobal once at startup, Get everywhere else.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration the field robot ships with.
func Default() *Config {
	return &Config{
		GroundReferenceCm:  100,
		GrowthRateCmPerDay: 1.8,
		ElapsedDays:        0,
		HeightGuardCm:      1,
		DutyCycleThreshold: 10,

		BehindScheduleDelayMS: 10000,
		IterationDelayMS:      100,
		SensorTimeoutMS:       0,
		ActuatorTimeoutMS:     0,
		DayAdvanceIntervalMS:  0,

		TempLowC:        21,
		TempHighC:       24,
		TempFaultValues: []float64{-127, 85},
		LightLowLux:     2000,
		LightGoodLux:    4000,

		StepperAPins:       []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"},
		StepperBPins:       []string{"GPIO12", "GPIO16", "GPIO20", "GPIO21"},
		StepsPerRevolution: 300,
		StepDelayMS:        2, // 100 rpm at 300 steps/rev

		HCSR04TriggerPin:    "GPIO23",
		HCSR04EchoPin:       "GPIO24",
		HCSR04EchoTimeoutMS: 1000,
		SpeedOfSoundCmPerUs: 0.034,

		TempSensor:            TempSensorDS18B20,
		DS18B20ResolutionBits: 12,
		BMX280I2CAddr:         0x76,

		ADS1115I2CAddr: 0x48,
		GasADCChannel:  0,
		TSL2561I2CAddr: 0x39,

		ReportSinks:    []string{SinkLog},
		SerialPort:     "/dev/serial0",
		SerialBaudRate: 9600,
		DisplayLines:   4,

		MQTTBroker:      "tcp://localhost:1883",
		MQTTClientID:    "crop-monitor",
		ReportTopic:     "crop/report",
		DayAdvanceTopic: "crop/day/advance",

		LogLevel: "info",
	}
}

// Load reads the configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Growth model
	case "GROUND_REFERENCE_CM":
		c.GroundReferenceCm, err = parseFloat(key, value)
	case "GROWTH_RATE_CM_PER_DAY":
		c.GrowthRateCmPerDay, err = parseFloat(key, value)
	case "ELAPSED_DAYS":
		c.ElapsedDays, err = parseNonNegativeInt(key, value)
	case "HEIGHT_GUARD_CM":
		c.HeightGuardCm, err = parseFloat(key, value)
	case "DUTY_CYCLE_THRESHOLD":
		c.DutyCycleThreshold, err = parseNonNegativeInt(key, value)

	// Timing
	case "BEHIND_SCHEDULE_DELAY_MS":
		c.BehindScheduleDelayMS, err = parseNonNegativeInt(key, value)
	case "ITERATION_DELAY_MS":
		c.IterationDelayMS, err = parseNonNegativeInt(key, value)
	case "SENSOR_TIMEOUT_MS":
		c.SensorTimeoutMS, err = parseNonNegativeInt(key, value)
	case "ACTUATOR_TIMEOUT_MS":
		c.ActuatorTimeoutMS, err = parseNonNegativeInt(key, value)
	case "DAY_ADVANCE_INTERVAL_MS":
		c.DayAdvanceIntervalMS, err = parseNonNegativeInt(key, value)

	// Bands
	case "TEMP_LOW_C":
		c.TempLowC, err = parseFloat(key, value)
	case "TEMP_HIGH_C":
		c.TempHighC, err = parseFloat(key, value)
	case "TEMP_FAULT_VALUES":
		c.TempFaultValues, err = parseFloatList(key, value)
	case "LIGHT_LOW_LUX":
		c.LightLowLux, err = parseFloat(key, value)
	case "LIGHT_GOOD_LUX":
		c.LightGoodLux, err = parseFloat(key, value)

	// Stepper motors
	case "STEPPER_A_PINS":
		c.StepperAPins, err = parsePins(key, value)
	case "STEPPER_B_PINS":
		c.StepperBPins, err = parsePins(key, value)
	case "STEPS_PER_REVOLUTION":
		c.StepsPerRevolution, err = parseNonNegativeInt(key, value)
	case "STEP_DELAY_MS":
		c.StepDelayMS, err = parseNonNegativeInt(key, value)

	// HC-SR04
	case "HCSR04_TRIGGER_PIN":
		c.HCSR04TriggerPin = value
	case "HCSR04_ECHO_PIN":
		c.HCSR04EchoPin = value
	case "HCSR04_ECHO_TIMEOUT_MS":
		c.HCSR04EchoTimeoutMS, err = parseNonNegativeInt(key, value)
	case "SPEED_OF_SOUND_CM_PER_US":
		c.SpeedOfSoundCmPerUs, err = parseFloat(key, value)

	// Temperature
	case "TEMP_SENSOR":
		switch value {
		case TempSensorDS18B20, TempSensorBMX280:
			c.TempSensor = value
		default:
			return fmt.Errorf("TEMP_SENSOR must be %q or %q, got %q", TempSensorDS18B20, TempSensorBMX280, value)
		}
	case "DS18B20_ONEWIRE_BUS":
		c.DS18B20OneWireBus = value
	case "DS18B20_ADDRESS":
		addr, perr := strconv.ParseUint(value, 0, 64)
		if perr != nil {
			return fmt.Errorf("invalid DS18B20_ADDRESS %q: %w", value, perr)
		}
		c.DS18B20Address = addr
	case "DS18B20_RESOLUTION_BITS":
		bits, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid DS18B20_RESOLUTION_BITS %q: %w", value, perr)
		}
		if bits < 9 || bits > 12 {
			return fmt.Errorf("DS18B20_RESOLUTION_BITS must be 9-12, got %d", bits)
		}
		c.DS18B20ResolutionBits = bits
	case "BMX280_I2C_ADDR":
		c.BMX280I2CAddr, err = parseI2CAddr(key, value)

	// I2C peripherals
	case "I2C_BUS":
		c.I2CBus = value
	case "ADS1115_I2C_ADDR":
		c.ADS1115I2CAddr, err = parseI2CAddr(key, value)
	case "GAS_ADC_CHANNEL":
		ch, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid GAS_ADC_CHANNEL %q: %w", value, perr)
		}
		if ch < 0 || ch > 3 {
			return fmt.Errorf("GAS_ADC_CHANNEL must be 0-3, got %d", ch)
		}
		c.GasADCChannel = ch
	case "TSL2561_I2C_ADDR":
		c.TSL2561I2CAddr, err = parseI2CAddr(key, value)

	// Reporting
	case "REPORT_SINKS":
		c.ReportSinks, err = parseSinks(value)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseNonNegativeInt(key, value)
	case "DISPLAY_LINES":
		c.DisplayLines, err = parseNonNegativeInt(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "REPORT_TOPIC":
		c.ReportTopic = value
	case "DAY_ADVANCE_TOPIC":
		c.DayAdvanceTopic = value

	case "LOG_LEVEL":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", value)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.GroundReferenceCm <= 0 {
		return fmt.Errorf("GROUND_REFERENCE_CM must be > 0, got %v", c.GroundReferenceCm)
	}
	if c.GrowthRateCmPerDay < 0 {
		return fmt.Errorf("GROWTH_RATE_CM_PER_DAY must be >= 0, got %v", c.GrowthRateCmPerDay)
	}
	if c.TempLowC > c.TempHighC {
		return fmt.Errorf("TEMP_LOW_C (%v) must not exceed TEMP_HIGH_C (%v)", c.TempLowC, c.TempHighC)
	}
	if c.LightLowLux >= c.LightGoodLux {
		return fmt.Errorf("LIGHT_LOW_LUX (%v) must be below LIGHT_GOOD_LUX (%v)", c.LightLowLux, c.LightGoodLux)
	}
	if c.StepsPerRevolution == 0 {
		return fmt.Errorf("STEPS_PER_REVOLUTION is required")
	}
	if move := c.MoveDuration(); c.ActuatorTimeoutMS > 0 && c.ActuatorTimeout() <= move {
		return fmt.Errorf("ACTUATOR_TIMEOUT_MS (%d) must exceed one move (2 x %d steps x %d ms = %v)",
			c.ActuatorTimeoutMS, c.StepsPerRevolution, c.StepDelayMS, move)
	}
	if len(c.ReportSinks) == 0 {
		return fmt.Errorf("REPORT_SINKS is required")
	}
	if c.HasSink(SinkSerial) && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required for the serial sink")
	}
	if c.HasSink(SinkMQTT) && (c.MQTTBroker == "" || c.ReportTopic == "") {
		return fmt.Errorf("MQTT_BROKER and REPORT_TOPIC are required for the mqtt sink")
	}
	if c.HasSink(SinkDisplay) && c.DisplayLines == 0 {
		return fmt.Errorf("DISPLAY_LINES is required for the display sink")
	}
	return nil
}

// HasSink reports whether name is listed in REPORT_SINKS.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.ReportSinks {
		if s == name {
			return true
		}
	}
	return false
}

// Duration helpers

func (c *Config) BehindScheduleDelay() time.Duration {
	return time.Duration(c.BehindScheduleDelayMS) * time.Millisecond
}

func (c *Config) IterationDelay() time.Duration {
	return time.Duration(c.IterationDelayMS) * time.Millisecond
}

func (c *Config) SensorTimeout() time.Duration {
	return time.Duration(c.SensorTimeoutMS) * time.Millisecond
}

func (c *Config) ActuatorTimeout() time.Duration {
	return time.Duration(c.ActuatorTimeoutMS) * time.Millisecond
}

// MoveDuration is the minimum time one revolution of both motors takes.
func (c *Config) MoveDuration() time.Duration {
	return 2 * time.Duration(c.StepsPerRevolution) * c.StepDelay()
}

func (c *Config) DayAdvanceInterval() time.Duration {
	return time.Duration(c.DayAdvanceIntervalMS) * time.Millisecond
}

func (c *Config) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

func (c *Config) HCSR04EchoTimeout() time.Duration {
	return time.Duration(c.HCSR04EchoTimeoutMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return that call's error.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseNonNegativeInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must be >= 0, got %d", key, v)
	}
	return v, nil
}

func parseI2CAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("%s must be a 7-bit address, got 0x%X", key, addr)
	}
	return uint16(addr), nil
}

func parseFloatList(key, value string) ([]float64, error) {
	var out []float64
	for _, f := range splitList(value) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parsePins(key, value string) ([]string, error) {
	pins := splitList(value)
	if len(pins) != 4 {
		return nil, fmt.Errorf("%s needs 4 comma-separated pins, got %d", key, len(pins))
	}
	return pins, nil
}

func parseSinks(value string) ([]string, error) {
	sinks := splitList(value)
	for _, s := range sinks {
		switch s {
		case SinkLog, SinkSerial, SinkMQTT, SinkDisplay:
		default:
			return nil, fmt.Errorf("unknown report sink %q", s)
		}
	}
	return sinks, nil
}

func splitList(value string) []string {
	var out []string
	for _, f := range strings.Split(value, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
