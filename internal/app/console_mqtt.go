package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/crop_monitor/internal/config"
)

// RunConsoleMQTT prints every report line and day command seen on the
// broker until Ctrl+C.
func RunConsoleMQTT() error {
	cfg := config.Get()
	log := NewLogger(cfg.LogLevel)

	client, err := connectMQTT(cfg.MQTTBroker, "crop-console", log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	subs := map[string]string{
		cfg.ReportTopic:     "REPORT",
		cfg.DayAdvanceTopic: "DAY",
	}
	for topic, tag := range subs {
		if topic == "" {
			continue
		}
		tag := tag
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			fmt.Printf("%s [%-6s] %s\n", time.Now().Format("15:04:05"), tag, msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Info("console: subscribed", "topic", topic)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("console: shutting down")
	return nil
}
