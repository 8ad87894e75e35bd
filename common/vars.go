package common

// Version is overwritten at build time via -ldflags.
var Version = "dev"

// PackageName is used as the metrics namespace.
const PackageName = "image_copyright_registry"
