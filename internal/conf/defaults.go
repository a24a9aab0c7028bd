package conf

import "github.com/spf13/viper"

// setDefaults registers the default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "mediascan")
	v.SetDefault("main.log.enabled", true)
	v.SetDefault("main.log.path", "logs/mediascan.log")
	v.SetDefault("main.log.maxsize", 100)
	v.SetDefault("main.log.maxbackups", 3)
	v.SetDefault("main.log.maxage", 28)

	v.SetDefault("input.path", "data/photos")
	v.SetDefault("input.recursive", false)

	v.SetDefault("detector.modelpath", "model/yolov5s-fp16.tflite")
	v.SetDefault("detector.inputsize", 640)
	v.SetDefault("detector.threshold", 0.25)
	v.SetDefault("detector.iou", 0.45)
	v.SetDefault("detector.threads", 0)
	v.SetDefault("detector.usexnnpack", true)

	v.SetDefault("output.sqlite.enabled", true)
	v.SetDefault("output.sqlite.path", "mediascan.db")
	v.SetDefault("output.mysql.enabled", false)
	v.SetDefault("output.mysql.username", "mediascan")
	v.SetDefault("output.mysql.password", "")
	v.SetDefault("output.mysql.database", "mediascan")
	v.SetDefault("output.mysql.host", "localhost")
	v.SetDefault("output.mysql.port", "3306")

	v.SetDefault("http.port", "8080")
}
