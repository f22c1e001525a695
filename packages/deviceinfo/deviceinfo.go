package deviceinfo

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// DefaultInterface is the interface whose address IPAddress reports
	DefaultInterface  = "en0"
	appStoreURLFormat = "https://apps.apple.com/%s/app/%s/id%s"
	osReleasePath     = "/proc/sys/kernel/osrelease"
	machineIDPath     = "/etc/machine-id"
)

// App describes the application that embeds the client
type App struct {
	Name    string
	Version string
	Build   string
	StoreID string
	Region  string
}

// Helper exposes device and application details used to identify the caller.
type Helper struct {
	identifier string
	idOnce     sync.Once
	iface      string
	app        App

	mu          sync.RWMutex
	deviceToken string

	hostname       func() (string, error)
	interfaceAddrs func(name string) ([]net.Addr, error)
	osRelease      func() string
	machineID      func() string
}

type Option func(*Helper)

// WithIdentifier fixes the device identifier instead of deriving one
func WithIdentifier(id string) Option {
	return func(h *Helper) {
		if id != "" {
			h.identifier = id
		}
	}
}

func WithInterface(name string) Option {
	return func(h *Helper) {
		if name != "" {
			h.iface = name
		}
	}
}

func WithApp(app App) Option {
	return func(h *Helper) {
		h.app = app
	}
}

func WithDeviceToken(token string) Option {
	return func(h *Helper) {
		h.deviceToken = token
	}
}

func New(opts ...Option) *Helper {
	h := &Helper{
		iface:          DefaultInterface,
		hostname:       os.Hostname,
		interfaceAddrs: lookupInterfaceAddrs,
		osRelease:      readOSRelease,
		machineID:      readMachineID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Identifier is derived from the machine id and host name, so it is the same
// across runs on one machine. When neither is available a random identifier is
// generated and kept for the lifetime of the helper.
func (h *Helper) Identifier() string {
	h.idOnce.Do(func() {
		if h.identifier != "" {
			return
		}
		seed := h.machineID() + "/" + h.DeviceName()
		if seed == "/" {
			h.identifier = uuid.NewString()
			return
		}
		h.identifier = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	})
	return h.identifier
}

// IPAddress returns the last address of the configured interface, or "" when
// the interface is missing or has no address.
func (h *Helper) IPAddress() string {
	addrs, err := h.interfaceAddrs(h.iface)
	if err != nil {
		return ""
	}

	address := ""
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil {
			continue
		}
		address = ip.String()
	}
	return address
}

func (h *Helper) DeviceToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deviceToken
}

func (h *Helper) SetDeviceToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deviceToken = token
}

// DeviceName is the host name
func (h *Helper) DeviceName() string {
	name, err := h.hostname()
	if err != nil {
		return ""
	}
	return name
}

func (h *Helper) DeviceModel() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// DeviceOS is the system name followed by its release, when known
func (h *Helper) DeviceOS() string {
	return strings.TrimSpace(runtime.GOOS + " " + h.osRelease())
}

func (h *Helper) AppName() string {
	return h.app.Name
}

func (h *Helper) AppVersion() string {
	return h.app.Version
}

func (h *Helper) BuildVersion() string {
	return h.app.Build
}

// DisplayVersion formats as "name version (build)"
func (h *Helper) DisplayVersion() string {
	return fmt.Sprintf("%s %s (%s)", h.app.Name, h.app.Version, h.app.Build)
}

// ReleaseVersion formats as "version.build"
func (h *Helper) ReleaseVersion() string {
	return h.app.Version + "." + h.app.Build
}

func (h *Helper) AppStoreURL() string {
	return fmt.Sprintf(appStoreURLFormat, h.app.Region, h.app.Name, h.app.StoreID)
}

// SubmitUserAgent formats as "name version, deviceName, deviceModel deviceOS"
func (h *Helper) SubmitUserAgent() string {
	var b strings.Builder
	b.WriteString(h.app.Name + " ")
	b.WriteString(h.app.Version + ", ")
	b.WriteString(h.DeviceName() + ", ")
	b.WriteString(h.DeviceModel() + " ")
	b.WriteString(h.DeviceOS())
	return b.String()
}

// Variables exposes the device and app details by the names used in
// {{name}} references.
func (h *Helper) Variables() map[string]string {
	return map[string]string{
		"deviceId":       h.Identifier(),
		"deviceName":     h.DeviceName(),
		"deviceModel":    h.DeviceModel(),
		"deviceOS":       h.DeviceOS(),
		"appName":        h.app.Name,
		"appVersion":     h.app.Version,
		"buildVersion":   h.app.Build,
		"releaseVersion": h.ReleaseVersion(),
	}
}

func lookupInterfaceAddrs(name string) ([]net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return iface.Addrs()
}

func readMachineID() string {
	data, err := os.ReadFile(machineIDPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readOSRelease() string {
	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
