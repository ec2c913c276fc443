package locale

import (
	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/profile"
)

// Key identifies a translatable message.
type Key string

const (
	KeyAppTitle   Key = "app_title"
	KeyEncoder    Key = "encoder_mode"
	KeyQuality    Key = "quality"
	KeySpeed      Key = "speed"
	KeyResolution Key = "resolution"
	KeyOutputDir  Key = "output_dir"
	KeySameAsSrc  Key = "output_placeholder"
	KeyFileCount  Key = "file_count"
	KeyProcessing Key = "processing"
	KeyDoneCount  Key = "done"
	KeyStopHint   Key = "stop_hint"

	KeyWaiting     Key = "waiting"
	KeyPreparing   Key = "preparing"
	KeyCompressing Key = "compressing"
	KeyDone        Key = "status_done"
	KeyFailed      Key = "failed"
	KeyStopping    Key = "stopping"

	KeyColFilename Key = "col_filename"
	KeyColSize     Key = "col_size"
	KeyColProgress Key = "col_progress"
	KeyColOutput   Key = "col_output"
	KeyColStatus   Key = "col_status"

	KeyCPUH264   Key = "cpu_h264"
	KeyCPUH265   Key = "cpu_h265"
	KeyAppleH264 Key = "apple_h264"
	KeyAppleH265 Key = "apple_h265"
	KeyNVIDIA    Key = "nvidia"
	KeyAMD       Key = "amd"
	KeyIntel     Key = "intel"

	KeyInfoApple  Key = "info_apple"
	KeyInfoNVIDIA Key = "info_nvidia"
	KeyInfoAMD    Key = "info_amd"
	KeyInfoIntel  Key = "info_intel"
	KeyInfoH265   Key = "info_h265"
	KeyInfoCPU    Key = "info_cpu"

	KeyHighQuality  Key = "high_quality"
	KeyBalanced     Key = "balanced"
	KeySmallSize    Key = "small_size"
	KeyFast         Key = "fast"
	KeyHighCompress Key = "high_compress"
	KeyKeepOriginal Key = "keep_original"

	KeyCompressDone   Key = "compress_done"
	KeyStopped        Key = "stopped"
	KeyFilesProcessed Key = "files_processed"
	KeyOriginalSize   Key = "original_size"
	KeyCompressedSize Key = "compressed_size"
	KeySpaceSaved     Key = "space_saved"
	KeySizeIncreased  Key = "size_increased"
	KeyFilesUnit      Key = "files_unit"

	KeyNoFiles       Key = "add_files_first"
	KeyCannotMkdir   Key = "cannot_create_dir"
	KeyEngineMissing Key = "no_ffmpeg_warning"
	KeyNoSpeed       Key = "no_speed_presets"
	KeyFallback      Key = "encoder_fallback"
)

var profileNames = map[profile.ID]Key{
	profile.CPUH264:   KeyCPUH264,
	profile.CPUH265:   KeyCPUH265,
	profile.AppleH264: KeyAppleH264,
	profile.AppleH265: KeyAppleH265,
	profile.NVIDIA:    KeyNVIDIA,
	profile.AMD:       KeyAMD,
	profile.Intel:     KeyIntel,
}

var profileInfos = map[profile.Info]Key{
	profile.InfoApple:  KeyInfoApple,
	profile.InfoNVIDIA: KeyInfoNVIDIA,
	profile.InfoAMD:    KeyInfoAMD,
	profile.InfoIntel:  KeyInfoIntel,
	profile.InfoH265:   KeyInfoH265,
	profile.InfoCPU:    KeyInfoCPU,
}

var statusKeys = map[pipeline.Status]Key{
	pipeline.StatusWaiting:     KeyWaiting,
	pipeline.StatusPreparing:   KeyPreparing,
	pipeline.StatusCompressing: KeyCompressing,
	pipeline.StatusDone:        KeyDone,
	pipeline.StatusFailed:      KeyFailed,
	pipeline.StatusStopping:    KeyStopping,
}

var tables = map[Lang]map[Key]string{
	English: {
		KeyAppTitle:   "vidpress batch video compressor",
		KeyEncoder:    "Encoder",
		KeyQuality:    "Quality",
		KeySpeed:      "Speed",
		KeyResolution: "Resolution",
		KeyOutputDir:  "Output",
		KeySameAsSrc:  "same as source file",
		KeyFileCount:  "%d files, %s",
		KeyProcessing: "Processing %d/%d",
		KeyDoneCount:  "Done %d/%d",
		KeyStopHint:   "s / q / ctrl+c: stop",

		KeyWaiting:     "Waiting",
		KeyPreparing:   "Preparing...",
		KeyCompressing: "Compressing",
		KeyDone:        "Done",
		KeyFailed:      "Failed",
		KeyStopping:    "Stopping...",

		KeyColFilename: "Filename",
		KeyColSize:     "Size",
		KeyColProgress: "Progress",
		KeyColOutput:   "Output",
		KeyColStatus:   "Status",

		KeyCPUH264:   "CPU H.264 (Best Compatibility)",
		KeyCPUH265:   "CPU H.265 (Smaller Size)",
		KeyAppleH264: "Apple GPU H.264 (Recommended)",
		KeyAppleH265: "Apple GPU H.265",
		KeyNVIDIA:    "NVIDIA GPU (Hardware Accel)",
		KeyAMD:       "AMD GPU (Hardware Accel)",
		KeyIntel:     "Intel GPU (Quick Sync)",

		KeyInfoApple:  "Apple hardware acceleration, fast",
		KeyInfoNVIDIA: "NVIDIA GPU acceleration",
		KeyInfoAMD:    "AMD GPU acceleration",
		KeyInfoIntel:  "Intel Quick Sync acceleration",
		KeyInfoH265:   "H.265 codec, smaller but less compatible",
		KeyInfoCPU:    "CPU encoding, best compatibility",

		KeyHighQuality:  "High Quality",
		KeyBalanced:     "Balanced",
		KeySmallSize:    "Small Size",
		KeyFast:         "Fast",
		KeyHighCompress: "High Compress",
		KeyKeepOriginal: "Original",

		KeyCompressDone:   "Compression Complete",
		KeyStopped:        "Stopped",
		KeyFilesProcessed: "Processed:",
		KeyOriginalSize:   "Original:",
		KeyCompressedSize: "Compressed:",
		KeySpaceSaved:     "Saved:",
		KeySizeIncreased:  "Increased:",
		KeyFilesUnit:      "%d/%d files",

		KeyNoFiles:       "Please add video files first",
		KeyCannotMkdir:   "Cannot create output directory: %s",
		KeyEngineMissing: "FFmpeg not installed, compression unavailable",
		KeyNoSpeed:       "%s has no speed presets; --speed ignored",
		KeyFallback:      "Encoder %q is not available; using %s",
	},
	Chinese: {
		KeyAppTitle:   "vidpress 视频批量压缩",
		KeyEncoder:    "编码模式",
		KeyQuality:    "质量",
		KeySpeed:      "速度",
		KeyResolution: "分辨率",
		KeyOutputDir:  "输出目录",
		KeySameAsSrc:  "原文件所在目录",
		KeyFileCount:  "共 %d 个文件，%s",
		KeyProcessing: "处理中 %d/%d",
		KeyDoneCount:  "完成 %d/%d",
		KeyStopHint:   "s / q / ctrl+c：停止",

		KeyWaiting:     "等待",
		KeyPreparing:   "准备中...",
		KeyCompressing: "压缩中",
		KeyDone:        "完成",
		KeyFailed:      "失败",
		KeyStopping:    "正在停止...",

		KeyColFilename: "文件名",
		KeyColSize:     "大小",
		KeyColProgress: "进度",
		KeyColOutput:   "压缩后",
		KeyColStatus:   "状态",

		KeyCPUH264:   "CPU H.264 (兼容性最好)",
		KeyCPUH265:   "CPU H.265 (体积更小)",
		KeyAppleH264: "Apple GPU H.264 (推荐)",
		KeyAppleH265: "Apple GPU H.265",
		KeyNVIDIA:    "NVIDIA GPU (N卡加速)",
		KeyAMD:       "AMD GPU (A卡加速)",
		KeyIntel:     "Intel GPU (核显加速)",

		KeyInfoApple:  "使用 Apple 硬件加速，速度快",
		KeyInfoNVIDIA: "使用 NVIDIA GPU 加速",
		KeyInfoAMD:    "使用 AMD GPU 加速",
		KeyInfoIntel:  "使用 Intel 核显加速",
		KeyInfoH265:   "H.265 编码，体积更小但兼容性稍差",
		KeyInfoCPU:    "CPU 编码，兼容性最好",

		KeyHighQuality:  "高质量",
		KeyBalanced:     "平衡",
		KeySmallSize:    "小体积",
		KeyFast:         "快速",
		KeyHighCompress: "高压缩",
		KeyKeepOriginal: "保持原始",

		KeyCompressDone:   "压缩完成",
		KeyStopped:        "已停止",
		KeyFilesProcessed: "成功处理:",
		KeyOriginalSize:   "原始大小:",
		KeyCompressedSize: "压缩后:",
		KeySpaceSaved:     "节省空间:",
		KeySizeIncreased:  "体积增加:",
		KeyFilesUnit:      "%d/%d 个文件",

		KeyNoFiles:       "请先添加视频文件",
		KeyCannotMkdir:   "无法创建输出目录: %s",
		KeyEngineMissing: "未安装 FFmpeg，无法使用压缩功能",
		KeyNoSpeed:       "%s 不支持速度预设，已忽略 --speed",
		KeyFallback:      "编码器 %q 不可用，改用 %s",
	},
}
