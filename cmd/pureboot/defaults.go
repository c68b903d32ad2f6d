package main

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
)

const publicIPInterfaceEnv = "PUREBOOT_PUBLIC_IP_INTERFACE"

// detectPublicIP picks the IPv4 address pureboot advertises to clients in
// iPXE scripts and Pi cmdline.txt files: an explicit interface name wins,
// otherwise the first global-unicast IPv4 address on the host.
func detectPublicIP() netip.Addr {
	if ifname := os.Getenv(publicIPInterfaceEnv); ifname != "" {
		if ip := ipByInterface(ifname); ip.IsValid() {
			return ip
		}
	}

	ip, err := autoDetectPublicIPv4()
	if err != nil {
		return netip.Addr{}
	}
	return ip
}

// ipByInterface returns the first IPv4 address on the named network interface.
func ipByInterface(name string) netip.Addr {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return netip.Addr{}
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return netip.AddrFrom4([4]byte(v4))
		}
	}

	return netip.Addr{}
}

func autoDetectPublicIPv4() (netip.Addr, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("unable to auto-detect public IPv4: %w", err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		v4 := ipNet.IP.To4()
		if v4 == nil || !v4.IsGlobalUnicast() {
			continue
		}
		return netip.AddrFrom4([4]byte(v4)), nil
	}

	return netip.Addr{}, errors.New("unable to auto-detect public IPv4")
}
