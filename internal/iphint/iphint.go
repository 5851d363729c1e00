// 包 iphint：出口 IP 的数据库归属国家，仅作诊断，不参与判定
package iphint

import (
	"net"
	"strings"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
	"github.com/oschwald/geoip2-golang"

	"vpn-geosanity/internal/countries"
)

// Hint：IP → ISO alpha-2 国家代码；未知返回 false
type Hint interface {
	Country(ip string) (string, bool)
}

// Chain：依次查询，第一个命中生效
type Chain []Hint

// NewChain 忽略 nil 项
func NewChain(hs ...Hint) Chain {
	var c Chain
	for _, h := range hs {
		if h != nil {
			c = append(c, h)
		}
	}
	return c
}

func (c Chain) Country(ip string) (string, bool) {
	for _, h := range c {
		if code, ok := h.Country(ip); ok {
			return code, true
		}
	}
	return "", false
}

// GeoIP：MaxMind/DB-IP 等 mmdb 国家库
type GeoIP struct {
	db *geoip2.Reader
}

// OpenGeoIP path 为空时返回 nil, nil（未启用）
func OpenGeoIP(path string) (*GeoIP, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIP{db: db}, nil
}

func (g *GeoIP) Country(ip string) (string, bool) {
	if g == nil || g.db == nil {
		return "", false
	}
	p := net.ParseIP(strings.TrimSpace(ip))
	if p == nil || p.IsPrivate() || p.IsLoopback() {
		return "", false
	}
	rec, err := g.db.Country(p)
	if err != nil || rec.Country.IsoCode == "" {
		return "", false
	}
	return countries.Normalize(rec.Country.IsoCode), true
}

func (g *GeoIP) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	return g.db.Close()
}

// searcher 便于测试替换 xdb 查询
type searcher interface {
	SearchByStr(ip string) (string, error)
}

// IP2Region：xdb 离线库；区域串形如 "国家|区域|省份|城市|ISP"
type IP2Region struct {
	v4 searcher
}

// OpenIP2Region 仅加载 IPv4 库；path 为空时返回 nil, nil
func OpenIP2Region(v4Path string) (*IP2Region, error) {
	if v4Path == "" {
		return nil, nil
	}
	s, err := xdb.NewWithFileOnly(xdb.IPv4, v4Path)
	if err != nil {
		return nil, err
	}
	return &IP2Region{v4: s}, nil
}

func (c *IP2Region) Country(ip string) (string, bool) {
	if c == nil || c.v4 == nil || ip == "" {
		return "", false
	}
	region, err := c.v4.SearchByStr(strings.TrimSpace(ip))
	if err != nil || region == "" {
		return "", false
	}
	return parseRegion(region)
}

// parseRegion 优先取区域串中的二字母代码字段，否则按国家名（中文或英文）映射
func parseRegion(s string) (string, bool) {
	parts := strings.Split(s, "|")
	for _, p := range parts[1:] {
		if len(p) == 2 && countries.IsValid(p) && strings.ToUpper(p) == p {
			return p, true
		}
	}
	name := safe(parts[0])
	if name == "" {
		return "", false
	}
	if code := countries.Code(name); code != "" {
		return code, true
	}
	return "", false
}

func safe(s string) string {
	s = strings.TrimSpace(s)
	if s == "0" || strings.EqualFold(s, "unknown") || s == "保留" || s == "内网IP" {
		return ""
	}
	return s
}
