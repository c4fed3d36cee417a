package envvar

const (
	// QuietwaveEnv is the environment variable used to determine the environment
	QuietwaveEnv = "QUIETWAVE_ENV"

	// QuietwaveServerHTTPPort is the environment variable used to determine the HTTP port
	QuietwaveServerHTTPPort = "QUIETWAVE_SERVER_HTTP_PORT"

	// QuietwaveServerGRPCPort is the environment variable used to determine the gRPC port
	QuietwaveServerGRPCPort = "QUIETWAVE_SERVER_GRPC_PORT"

	// QuietwaveModelPath overrides the artifact path of the default model
	QuietwaveModelPath = "QUIETWAVE_MODEL_PATH"

	// QuietwaveFFmpegPath overrides the ffmpeg binary used for transcoding
	QuietwaveFFmpegPath = "QUIETWAVE_FFMPEG_PATH"

	// QuietwaveONNXRuntimeLib overrides the ONNX Runtime shared library location
	QuietwaveONNXRuntimeLib = "QUIETWAVE_ONNXRUNTIME_LIB"
)
