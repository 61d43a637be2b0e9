package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/crop_monitor/internal/config"
	"github.com/relabs-tech/crop_monitor/internal/growth"
)

// applyDayCommand applies one day-advance message: an empty payload adds
// a day, an integer sets the elapsed day count.
func applyDayCommand(tracker *growth.Tracker, payload []byte) (int, error) {
	s := strings.TrimSpace(string(payload))
	if s == "" {
		return tracker.AdvanceDay(), nil
	}
	days, err := strconv.Atoi(s)
	if err != nil {
		return tracker.ElapsedDays(), fmt.Errorf("day command %q: not an integer", s)
	}
	if err := tracker.SetElapsedDays(days); err != nil {
		return tracker.ElapsedDays(), err
	}
	return days, nil
}

func dayAdvanceHandler(tracker *growth.Tracker, log *slog.Logger) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		days, err := applyDayCommand(tracker, msg.Payload())
		if err != nil {
			log.Warn("ignoring day command", "topic", msg.Topic(), "err", err)
			return
		}
		log.Info("elapsed days updated", "days", days, "expected_cm", tracker.ExpectedHeightCm())
	}
}

// subscribeDayAdvance listens for day commands on topic.
func subscribeDayAdvance(client mqtt.Client, topic string, tracker *growth.Tracker, log *slog.Logger) error {
	token := client.Subscribe(topic, 1, dayAdvanceHandler(tracker, log))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Info("subscribed to day advance", "topic", topic)
	return nil
}

// runDayTicker adds one day every interval until ctx is done.
func runDayTicker(ctx context.Context, tracker *growth.Tracker, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			days := tracker.AdvanceDay()
			log.Debug("day ticker", "days", days)
		}
	}
}

// RunDayAdvance publishes one day command. An empty value adds a day.
func RunDayAdvance(value string) error {
	cfg := config.Get()
	log := NewLogger(cfg.LogLevel)

	if value != "" {
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("day value %q: not an integer", value)
		}
	}

	client, err := connectMQTT(cfg.MQTTBroker, "crop-day-advance", log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Publish(cfg.DayAdvanceTopic, 1, false, value)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timed out", cfg.DayAdvanceTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", cfg.DayAdvanceTopic, err)
	}
	log.Info("day command sent", "topic", cfg.DayAdvanceTopic, "value", value)
	return nil
}
