package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Service constants.
const (
	// ServiceType is the mDNS service type for pacer bench devices.
	ServiceType = "_pacer._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultBrowseTimeout bounds FindByDeviceID searches.
	DefaultBrowseTimeout = 10 * time.Second
)

// DeviceService is a discovered pacer device.
type DeviceService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the advertised hostname.
	Host string

	// Port is the DCM link port.
	Port uint16

	// Addresses are the device's IP addresses as strings.
	Addresses []string

	// DeviceInfo is the identity decoded from TXT records.
	DeviceInfo
}

// Addr returns a dialable "host:port" address, preferring the first IP.
func (s *DeviceService) Addr() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", s.Port))
}

// Advertiser advertises one pacer device over mDNS.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
}

// Advertise registers the pacer service. The instance name is derived from
// the model and the device ID prefix so it stays readable in browsers.
func Advertise(info DeviceInfo, port int) (*Advertiser, error) {
	instance := info.Model
	if instance == "" {
		instance = "PACER"
	}
	if len(info.DeviceID) >= 8 {
		instance = fmt.Sprintf("%s-%s", instance, info.DeviceID[:8])
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		EncodeTXT(info),
		nil, // all interfaces
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register pacer service: %w", err)
	}
	return &Advertiser{server: server}, nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Browse searches for pacer devices until the context is cancelled.
// The returned channel is closed when browsing completes.
func Browse(ctx context.Context) (<-chan *DeviceService, error) {
	out := make(chan *DeviceService)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		// Aggregate by instance name: the same service shows up once per
		// interface.
		seen := make(map[string]struct{})

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToService(entry)
				if svc == nil {
					continue
				}
				if _, dup := seen[svc.InstanceName]; dup {
					continue
				}
				seen[svc.InstanceName] = struct{}{}
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case <-removed:
				// Bench devices come and go; removal is not surfaced.

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	}()

	return out, nil
}

// FindByDeviceID searches for a specific device. Returns when found or
// when the context expires.
func FindByDeviceID(ctx context.Context, deviceID string) (*DeviceService, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultBrowseTimeout)
	defer cancel()

	services, err := Browse(ctx)
	if err != nil {
		return nil, err
	}

	for svc := range services {
		if svc.DeviceID == deviceID {
			return svc, nil
		}
	}
	return nil, fmt.Errorf("device %s not found", deviceID)
}

// entryToService converts a zeroconf entry. Entries without a decodable
// device identity are ignored.
func entryToService(entry *zeroconf.ServiceEntry) *DeviceService {
	info, err := DecodeTXT(entry.Text)
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &DeviceService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		DeviceInfo:   info,
	}
}
