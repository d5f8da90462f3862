package util

const TimeFormat = "2006-01-02 15:04:05"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const MimeCSV = "text/csv"

// ContextUserKey is the gin context key holding the parsed *Claims.
const ContextUserKey = "user"
