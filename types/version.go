package types

// Version is the prospect release version.
// Keep in sync with release tags.
const Version = "0.1.0"
