/*
	Package zarrgen provides the core types shared across the converter:
	pixel types, 5d geometry and dimension ordering, chunk serialization,
	and logging.
*/
package zarrgen

// Version of this zarrgen release.
const Version = "0.1.0"
