// Package discovery advertises simulation servers on the local network via mDNS
// and finds the ones other machines advertise.
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type of the web simulation server
const ServiceType = "_acoustic-rt._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Info        []string // Extra TXT records, e.g. "scenes=4"
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
	Info []string
}

// Address returns host:port for the server
func (s ServerInfo) Address() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{config: config, ctx: ctx, cancel: cancel}
}

// txtRecords returns the TXT records advertised with the service
func (m *Manager) txtRecords() []string {
	return append([]string{"path=/api"}, m.config.Info...)
}

// Advertise announces the server until Stop is called
func (m *Manager) Advertise() error {
	if m.config.Port <= 0 || m.config.Port > 65535 {
		return fmt.Errorf("invalid port %d", m.config.Port)
	}
	if strings.TrimSpace(m.config.ServiceName) == "" {
		return fmt.Errorf("service name is required")
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse queries the network once and returns every server that answered within timeout
func Browse(timeout time.Duration) ([]ServerInfo, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []ServerInfo)

	go func() {
		var servers []ServerInfo
		seen := make(map[string]bool)
		for entry := range entries {
			server, ok := entryToServer(entry)
			if !ok || seen[server.Address()] {
				continue
			}
			seen[server.Address()] = true
			servers = append(servers, server)
		}
		done <- servers
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	// Query returns once the timeout expires; entries must stay open until then
	err := mdns.Query(params)
	close(entries)
	servers := <-done
	if err != nil {
		return servers, fmt.Errorf("mdns query failed: %w", err)
	}
	return servers, nil
}

// entryToServer converts an answer to ServerInfo, ignoring entries without an IPv4 address
func entryToServer(entry *mdns.ServiceEntry) (ServerInfo, bool) {
	if entry == nil || entry.AddrV4 == nil || entry.Port == 0 {
		return ServerInfo{}, false
	}
	return ServerInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Info: entry.InfoFields,
	}, true
}

// Stop stops advertising
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IPv4 addresses of interfaces that are up
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
