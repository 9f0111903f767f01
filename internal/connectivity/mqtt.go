package connectivity

import (
	"hms-listview/common/config"
	"hms-listview/common/mqtt"

	"go.uber.org/zap"
)

// MQTTMonitor 以 MQTT broker 连接状态作为在线信号
// broker 与 admin API 同机房部署，连接断开即视为离线
type MQTTMonitor struct {
	*state
	client *mqtt.Client
	logger *zap.Logger
}

// NewMQTTMonitor 连接 broker（异步），初始状态为离线
func NewMQTTMonitor(cfg *config.MQTTConfig, logger *zap.Logger) *MQTTMonitor {
	m := &MQTTMonitor{state: newState(false), logger: logger}
	m.client = mqtt.NewClient(cfg, mqtt.ConnectionHooks{
		OnConnect:        func() { m.update(true) },
		OnConnectionLost: func(error) { m.update(false) },
	}, logger)
	return m
}

func (m *MQTTMonitor) update(online bool) {
	if m.set(online) {
		m.logger.Info("Connectivity changed", zap.Bool("online", online), zap.String("source", "mqtt"))
	}
}

// Close 断开 broker
func (m *MQTTMonitor) Close() {
	m.client.Disconnect()
	m.update(false)
}
