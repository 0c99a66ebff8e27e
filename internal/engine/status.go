package engine

// Snapshot is a point-in-time view of the engine for the status API. It is
// rebuilt by the dispatch goroutine after every event and poll tick; readers
// see a consistent copy.
type Snapshot struct {
	Robot      string `json:"robot"`
	Connected  bool   `json:"connected"`
	Enabled    bool   `json:"enabled"`
	Autonomous bool   `json:"autonomous"`
	Test       bool   `json:"test"`

	DIOChannels       int `json:"dio_channels"`
	AnalogInChannels  int `json:"analog_in_channels"`
	AnalogOutChannels int `json:"analog_out_channels"`
	PWMChannels       int `json:"pwm_channels"`
	EncoderChannels   int `json:"encoder_channels"`
	SimDevices        int `json:"sim_devices"`

	PollTicks uint64 `json:"poll_ticks"`
}

// Status returns the latest snapshot. Safe from any goroutine.
func (e *Engine) Status() Snapshot {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

func (e *Engine) publishStatus() {
	snap := Snapshot{
		Robot:             e.robot.Descriptor(),
		Connected:         e.connected,
		Enabled:           e.ds.enabled,
		Autonomous:        e.ds.autonomous,
		Test:              e.ds.test,
		DIOChannels:       len(e.dios),
		AnalogInChannels:  len(e.analogIns),
		AnalogOutChannels: len(e.analogOuts),
		PWMChannels:       len(e.pwms),
		EncoderChannels:   len(e.encoders),
		SimDevices:        len(e.robot.SimDevices()),
		PollTicks:         e.ticks,
	}

	e.statusMu.Lock()
	e.status = snap
	e.statusMu.Unlock()
}
