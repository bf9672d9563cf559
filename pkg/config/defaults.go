package config

const (
	defaultStorageDriver = "sqlite"

	defaultUpstream = "http://localhost:3001"
	defaultListen   = ":8080"

	defaultCaptureEnabled = true

	defaultEventsBroker = "none"
	defaultKafkaBrokers = "localhost:9092"
	defaultKafkaTopic   = "reweave.artifacts"

	defaultFenceOpen  = "<file"
	defaultFenceClose = "</file>"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Gateway: GatewayConfig{
			Upstream: defaultUpstream,
			Listen:   defaultListen,
		},
		Capture: CaptureConfig{
			Enabled: defaultCaptureEnabled,
		},
		Events: EventsConfig{
			Broker:       defaultEventsBroker,
			KafkaBrokers: defaultKafkaBrokers,
			KafkaTopic:   defaultKafkaTopic,
		},
		Fence: FenceConfig{
			Open:  defaultFenceOpen,
			Close: defaultFenceClose,
		},
	}
}
