package format

import "io/fs"

const (
	// FilePublicRead is used for written artifacts, they are meant to be shared.
	FilePublicRead fs.FileMode = 0644

	// FileUserReadWrite is used for log files.
	FileUserReadWrite fs.FileMode = 0600
)
