// ABOUTME: Build version information
// ABOUTME: Version is overridden at link time with -ldflags "-X"
package version

var (
	// Version is the release version
	Version = "dev"

	// Product is the program name reported by the CLI
	Product = "sendspin-transcode"

	// Manufacturer identifies the project
	Manufacturer = "Sendspin"
)

// String returns "product version".
func String() string {
	return Product + " " + Version
}
