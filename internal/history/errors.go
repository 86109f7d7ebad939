package history

import "errors"

// Sentinel errors for extraction and record construction.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrOpenArchive indicates the project file is missing or not a zip archive.
	ErrOpenArchive = errors.New("cannot open project archive")

	// ErrManifestMissing indicates the archive has no GISProject.json entry.
	ErrManifestMissing = errors.New("project manifest not found")

	// ErrManifestInvalid indicates the manifest is not valid JSON.
	ErrManifestInvalid = errors.New("project manifest is not valid JSON")

	// ErrNoProjectItems indicates the manifest lacks a projectItems array.
	ErrNoProjectItems = errors.New("manifest has no projectItems array")

	// ErrMalformedRecord indicates a history item whose propertiesXML does not
	// carry a process element with parsable ticks and ticks2 attributes, or
	// whose fields have the wrong shape.
	ErrMalformedRecord = errors.New("malformed history record")

	// ErrConsumed is yielded when a record sequence is ranged over a second time.
	// Call Extract again to re-read the archive.
	ErrConsumed = errors.New("history sequence already consumed")
)
