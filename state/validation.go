package state

import (
	"fmt"
	"net/netip"

	"github.com/encodeous/strand/sys"
)

func LocalCfgValidator(cfg *LocalCfg) error {
	if cfg.Id == 0 || cfg.Id == 255 {
		return fmt.Errorf("%w: id must be between 1 and 254, got %d", ErrConfiguration, cfg.Id)
	}
	if cfg.Network == "" {
		return fmt.Errorf("%w: no network file specified", ErrConfiguration)
	}
	if int(cfg.BasePort)+int(cfg.Id) > 65535 {
		return fmt.Errorf("%w: base port %d is too large for id %d", ErrConfiguration, cfg.BasePort, cfg.Id)
	}
	if cfg.BootstrapQuota() < 0 {
		return fmt.Errorf("%w: bootstrap_messages must not be negative", ErrConfiguration)
	}
	if cfg.BootstrapQuota() > 0 && len(cfg.Messages) == 0 {
		return fmt.Errorf("%w: bootstrap messages requested, but no message texts are configured", ErrConfiguration)
	}
	if cfg.LogMaxSizeMB < 0 {
		return fmt.Errorf("%w: log_max_size_mb must not be negative", ErrConfiguration)
	}
	if cfg.RefreshInterval < 0 {
		return fmt.Errorf("%w: refresh_interval must not be negative", ErrConfiguration)
	}
	if cfg.DebugAddr != "" {
		if _, err := netip.ParseAddrPort(cfg.DebugAddr); err != nil {
			return fmt.Errorf("%w: debug_addr: %w", ErrConfiguration, err)
		}
	}
	return nil
}

// validNodeAddr checks that a is 127.0.0.<id> for a valid id, the only addresses a node can bind
func validNodeAddr(a NodeAddr) error {
	if err := sys.CheckLoopback(a.Addr()); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if a != LoopbackAddr(a[3]) || a[3] == 0 || a[3] == 255 {
		return fmt.Errorf("%w: %s is not of the form 127.0.0.<id> with id between 1 and 254", ErrConfiguration, a)
	}
	return nil
}

func NetworkCfgValidator(cfg *NetworkCfg) error {
	for node, links := range cfg.Links {
		if err := validNodeAddr(node); err != nil {
			return err
		}
		seen := make(map[NodeAddr]struct{})
		for _, link := range links {
			if err := validNodeAddr(link.Neighbour); err != nil {
				return err
			}
			if link.Neighbour == node {
				return fmt.Errorf("%w: node %s has a link to itself", ErrConfiguration, node)
			}
			if _, ok := seen[link.Neighbour]; ok {
				return fmt.Errorf("%w: duplicate link found: %s, %s", ErrConfiguration, node, link.Neighbour)
			}
			if link.Cost > MaxWireCost {
				return fmt.Errorf("%w: link %s, %s has cost %d, the maximum is %d", ErrConfiguration, node, link.Neighbour, link.Cost, MaxWireCost)
			}
			seen[link.Neighbour] = struct{}{}
		}
	}
	return nil
}
