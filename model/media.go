package model

// SourceKind 播放源类型
type SourceKind string

const (
	SourceDirectPreview  SourceKind = "direct-preview"
	SourceEmbeddedVideo  SourceKind = "embedded-video"
	SourceProxyExtracted SourceKind = "proxy-extracted"
)

// Quality hints attached to a resolved source.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// MediaSource 解析后的可播放地址及其来源
type MediaSource struct {
	Kind        SourceKind `json:"kind"`
	URL         string     `json:"url"`
	QualityHint string     `json:"qualityHint"`
}

// IsEmbed 是否需要通过嵌入式视频播放器播放
func (m *MediaSource) IsEmbed() bool {
	return m != nil && m.Kind == SourceEmbeddedVideo
}
