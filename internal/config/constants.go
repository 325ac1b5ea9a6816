package config

// Defaults applied when neither the config file nor the environment sets a value.
const (
	DefaultRegion           = "eu-west-3"
	DefaultWorkspace        = "/workspace"
	DefaultImageID          = "ami-08ee015f2bb7ccb9b" // Amazon Linux 2023, eu-west-3
	DefaultInstanceType     = "t3.micro"
	DefaultWebServerPackage = "nginx"
	DefaultWebPort          = 80
	DefaultSecurityGroup    = "stratus-web"
	DefaultKeyType          = KeyTypeEd25519
	DefaultServeAddr        = ":8080"
	DefaultLogFormat        = LogFormatAuto
)

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Key pair algorithms.
const (
	KeyTypeEd25519 = "ed25519"
	KeyTypeRSA     = "rsa"
)
