// 包 latency：时延样本过滤与最大可行距离估算
package latency

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// SpeedOfLightKmS 真空光速（km/s）
	SpeedOfLightKmS = 299792.0
	// PropagationFactor 光缆传播（约 2/3 c）叠加处理与排队时延后的等效速度系数
	PropagationFactor = 0.5104
)

// ErrInvalidSample 时延超出可信区间或非有限值；样本被丢弃，不影响整次校验
var ErrInvalidSample = errors.New("invalid latency sample")

// Kind 样本类型：往返或单程
type Kind int

const (
	RoundTrip Kind = iota
	OneWay
)

// Sample 单个锚点对出口节点的一次测量（毫秒）
type Sample struct {
	AnchorID  string
	LatencyMs float64
	Kind      Kind
}

// Band 单程时延可信区间；默认 [3,130)
type Band struct {
	MinMs        float64
	MaxMs        float64
	MaxInclusive bool
}

// DefaultBand 赤道周长约 40075km，半周 20037km；130ms 对应约 19891km，不会超出半周
var DefaultBand = Band{MinMs: 3.0, MaxMs: 130.0}

// Contains 判定单程时延是否落在区间内
func (b Band) Contains(ms float64) bool {
	if ms < b.MinMs {
		return false
	}
	if b.MaxInclusive {
		return ms <= b.MaxMs
	}
	return ms < b.MaxMs
}

// RadiusKm：单程时延（已过滤）对应的最大可行距离
// 约束：线性且单调；负值与非有限值由上游过滤拒绝
func RadiusKm(oneWayMs float64) float64 {
	return SpeedOfLightKmS * PropagationFactor * (oneWayMs / 1000.0)
}

// OneWayMs 返回样本的单程时延
func (s Sample) OneWayMs() float64 {
	if s.Kind == RoundTrip {
		return s.LatencyMs / 2.0
	}
	return s.LatencyMs
}

// Validate 检查单个样本；不合法时返回包装 ErrInvalidSample 的错误
func (b Band) Validate(s Sample) (float64, error) {
	if math.IsNaN(s.LatencyMs) || math.IsInf(s.LatencyMs, 0) || s.LatencyMs < 0 {
		return 0, fmt.Errorf("anchor %s latency %v: %w", s.AnchorID, s.LatencyMs, ErrInvalidSample)
	}
	ow := s.OneWayMs()
	if !b.Contains(ow) {
		return 0, fmt.Errorf("anchor %s one-way %.2fms outside band: %w", s.AnchorID, ow, ErrInvalidSample)
	}
	return ow, nil
}

// Best 每个锚点保留的最小单程时延
type Best struct {
	AnchorID string
	OneWayMs float64
}

// FilterResult 过滤结果与被丢弃样本计数
type FilterResult struct {
	Kept    []Best
	Dropped int
	Total   int
}

// Filter：丢弃区间外样本；同一锚点多次观测时保留最小单程时延（最紧、最保守的边界）
// 返回结果按锚点 ID 排序，保证相同输入得到相同输出
func Filter(samples []Sample, band Band) FilterResult {
	res := FilterResult{Total: len(samples)}
	best := make(map[string]float64, len(samples))
	for _, s := range samples {
		ow, err := band.Validate(s)
		if err != nil {
			res.Dropped++
			continue
		}
		if cur, ok := best[s.AnchorID]; !ok || ow < cur {
			best[s.AnchorID] = ow
		}
	}
	res.Kept = make([]Best, 0, len(best))
	for id, ow := range best {
		res.Kept = append(res.Kept, Best{AnchorID: id, OneWayMs: ow})
	}
	sort.Slice(res.Kept, func(i, j int) bool { return res.Kept[i].AnchorID < res.Kept[j].AnchorID })
	return res
}
