package domain

// SupplicantState is the closed set of EAP state-machine states the
// transport reacts to. The state machine itself is out of scope; the
// transport only observes transitions via Supplicant.GetState.
type SupplicantState int

const (
	StateInactive SupplicantState = iota
	StateConnecting
	StateAcquired
	StateAuthenticating
	StateAuthenticated
	StateHeld
	StateLogoff
	StateDisconnected
)

func (s SupplicantState) String() string {
	switch s {
	case StateInactive:
		return "Inactive"
	case StateConnecting:
		return "Connecting"
	case StateAcquired:
		return "Acquired"
	case StateAuthenticating:
		return "Authenticating"
	case StateAuthenticated:
		return "Authenticated"
	case StateHeld:
		return "Held"
	case StateLogoff:
		return "Logoff"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// EAPClientStatus augments a SupplicantState with the reason the EAP
// method layer is in that state. The transport only inspects it to detect
// the pre-auth "UserInputRequired" case (§4.4).
type EAPClientStatus int

const (
	EAPClientStatusOK EAPClientStatus = iota
	EAPClientStatusUserInputRequired
	EAPClientStatusAuthenticationFailed
	EAPClientStatusInternalError
)

// ControlMode is how the main supplicant was brought up: interactively by
// a logged-in user, at the login window, or as a system/background mode
// with no UI. It shapes controller-death handling (§4.4) and, per the
// open question in §9, nothing else — LoginWindow takes the same
// pre-auth path as User and System.
type ControlMode int

const (
	ModeNone ControlMode = iota
	ModeUser
	ModeLoginWindow
	ModeSystem
)

func (m ControlMode) String() string {
	switch m {
	case ModeUser:
		return "User"
	case ModeLoginWindow:
		return "LoginWindow"
	case ModeSystem:
		return "System"
	default:
		return "None"
	}
}

// ControlCommand is the numeric command extracted from a controller
// control dict (§4.4).
type ControlCommand int

const (
	ControlCommandRun ControlCommand = iota + 1
	ControlCommandStop
	ControlCommandTakeControl
	ControlCommandRetry
)

// ControlDict and StatusDict are the loosely-typed key/value payloads
// exchanged with the controller and the EAP method layer, mirroring the
// dictionaries the original transport passes opaquely through.
type ControlDict map[string]any
type StatusDict map[string]any

// Force reports whether the control dict carries the supplemented
// "force re-run" flag: when true the transport restarts the supplicant
// (stop then start) instead of merely forwarding control().
func (d ControlDict) Force() bool {
	v, ok := d["force"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Command extracts the numeric command field, defaulting to
// ControlCommandRun when absent.
func (d ControlDict) Command() ControlCommand {
	v, ok := d["command"]
	if !ok {
		return ControlCommandRun
	}
	switch c := v.(type) {
	case ControlCommand:
		return c
	case int:
		return ControlCommand(c)
	default:
		return ControlCommandRun
	}
}

// HasConfiguration reports whether the dict carries a "Configuration" key,
// used to detect the "configuration empty" failure (§7, scenario 3).
func (d ControlDict) HasConfiguration() bool {
	_, ok := d["Configuration"]
	return ok
}

// LinkState is the richer link event the original transport tracks:
// physical carrier plus administrative up/down. The transport still
// reduces this to a single bool for Supplicant.LinkStatusChanged, but logs
// the full event at debug level; it is not traced (SPEC_FULL §D.5).
type LinkState struct {
	Active  bool
	AdminUp bool
}

// EndpointStats mirrors the original eapol_socket_stats counters, exposed
// per-endpoint and mirrored into Prometheus (SPEC_FULL §D.6).
type EndpointStats struct {
	FramesReceived uint64
	FramesDropped  uint64
	FramesSent     uint64
}
