// Package compressor 提供对整块字节的单次压缩与解压。
package compressor

// Compressor 抽象了“单次压缩/解压”能力。
//
// 面向内存中的完整载荷，不处理流式数据；实现不做全局单例，调用方按需创建。
type Compressor interface {
	// Name 返回算法名称，例如 "zstd"。
	Name() string

	// Compress 将 src 压缩到 dst。
	//
	// dst 可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压到 dst，src 必须是 Compress 的输出。
	Decompress(dst, src []byte) (plain []byte, err error)
}

// NopCompressor 不做任何压缩/解压，直接返回输入内容，用于关闭压缩时的占位。
type NopCompressor struct{}

func (NopCompressor) Name() string { return "none" }

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

var _ Compressor = NopCompressor{}
