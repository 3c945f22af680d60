package collector

import "net"

// PreferredIP returns the IPv4 address the dashboard is most likely reached
// at from the plant network, or "" when the host has none.
func PreferredIP() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				candidates = append(candidates, ipnet.IP)
			}
		}
	}
	return pickIP(candidates), nil
}

// pickIP prefers 192.168.x.x, then any other private range, then whatever
// global unicast address is left.
func pickIP(candidates []net.IP) string {
	var v4 []net.IP
	for _, ip := range candidates {
		ip = ip.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		v4 = append(v4, ip)
	}
	for _, ip := range v4 {
		if ip[0] == 192 && ip[1] == 168 {
			return ip.String()
		}
	}
	for _, ip := range v4 {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(v4) > 0 {
		return v4[0].String()
	}
	return ""
}
