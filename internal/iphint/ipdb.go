package iphint

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"

	"vpn-geosanity/internal/countries"
	"vpn-geosanity/internal/logger"
)

type ipdbMeta struct {
	Build     int64          `json:"build"`
	IPVersion uint16         `json:"ip_version"`
	Languages map[string]int `json:"languages"`
	NodeCount int            `json:"node_count"`
	TotalSize int            `json:"total_size"`
	Fields    []string       `json:"fields"`
}

// 文档注释：IPIP IPDB 国家库
// 背景：二叉前缀树紧凑存储，节点 8 字节（左右各 4 字节 BE），叶子为“长度(uint16 BE) + 制表符分隔字段”。
// 约束：只读；只支持 IPv4 查询；国家字段按语言偏移读取后映射为 alpha-2。
type IPDB struct {
	meta      ipdbMeta
	data      []byte
	nodeCount int
	v4offset  int
	field     int
}

// OpenIPDB path 为空时返回 nil, nil；language 缺失时回退到最小偏移
func OpenIPDB(path, language string) (*IPDB, error) {
	if path == "" {
		return nil, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseIPDB(body, language)
}

func parseIPDB(body []byte, language string) (*IPDB, error) {
	size := len(body)
	if size < 4 {
		return nil, errors.New("bad ipdb size")
	}
	mlen := int(binary.BigEndian.Uint32(body[0:4]))
	if size < 4+mlen {
		return nil, errors.New("bad ipdb meta")
	}
	var m ipdbMeta
	if err := json.Unmarshal(body[4:4+mlen], &m); err != nil {
		return nil, err
	}
	if len(m.Languages) == 0 || len(m.Fields) == 0 {
		return nil, errors.New("bad ipdb meta fields")
	}
	if size != 4+mlen+m.TotalSize {
		return nil, errors.New("bad ipdb total size")
	}
	country := -1
	for i, f := range m.Fields {
		if f == "country_name" {
			country = i
			break
		}
	}
	if country < 0 {
		return nil, errors.New("ipdb has no country_name field")
	}
	db := &IPDB{meta: m, data: body[4+mlen:], nodeCount: m.NodeCount}
	db.field = languageOffset(m.Languages, language) + country
	// IPv4 映射在 ::ffff:0:0/96 之下：80 个 0 位后接 16 个 1 位
	node := 0
	for i := 0; i < 96 && node < db.nodeCount; i++ {
		if i >= 80 {
			node = db.readNode(node, 1)
		} else {
			node = db.readNode(node, 0)
		}
	}
	db.v4offset = node
	logger.For("iphint").Debug("ipdb_loaded", "build", m.Build, "nodes", m.NodeCount, "v4offset", node)
	return db, nil
}

func languageOffset(langs map[string]int, language string) int {
	if off, ok := langs[language]; ok {
		return off
	}
	have, min := false, 0
	for _, v := range langs {
		if !have || v < min {
			min, have = v, true
		}
	}
	return min
}

// readNode 越界返回原节点
func (db *IPDB) readNode(node, index int) int {
	off := node*8 + index*4
	if off+4 > len(db.data) {
		return node
	}
	return int(binary.BigEndian.Uint32(db.data[off : off+4]))
}

func (db *IPDB) resolve(node int) ([]byte, error) {
	resolved := node - db.nodeCount + db.nodeCount*8
	if resolved+2 > len(db.data) {
		return nil, errors.New("resolve out of range")
	}
	size := int(binary.BigEndian.Uint16(db.data[resolved : resolved+2]))
	if resolved+2+size > len(db.data) {
		return nil, errors.New("resolve size")
	}
	return db.data[resolved+2 : resolved+2+size], nil
}

// Fields IPv4 地址命中的原始字段（全部语言）
func (db *IPDB) Fields(ip string) ([]string, error) {
	v4 := net.ParseIP(strings.TrimSpace(ip)).To4()
	if v4 == nil {
		return nil, errors.New("not an ipv4 address")
	}
	node := db.v4offset
	for i := 0; i < 32 && node < db.nodeCount; i++ {
		bit := int(v4[i>>3]>>(7-uint(i&7))) & 1
		node = db.readNode(node, bit)
	}
	if node <= db.nodeCount {
		return nil, errors.New("ip not found")
	}
	raw, err := db.resolve(node)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(raw), "\t"), nil
}

func (db *IPDB) Country(ip string) (string, bool) {
	if db == nil {
		return "", false
	}
	fs, err := db.Fields(ip)
	if err != nil || db.field >= len(fs) {
		return "", false
	}
	name := safe(fs[db.field])
	if name == "" {
		return "", false
	}
	if code := countries.Code(name); code != "" {
		return code, true
	}
	return "", false
}
