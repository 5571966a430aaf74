package atomkey

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// KeyType denotes the kind of object a key refers to.
type KeyType int

// Key types. UNDEFINED is used by NullKey().
const (
	KeyTypeStreamGroup KeyType = iota
	KeyTypeGeneration
	KeyTypeTableData
	KeyTypeTableIndex
	KeyTypeVersion
	KeyTypeVersionJournal
	KeyTypeMetrics
	KeyTypeSnapshot
	KeyTypeSymbolList
	KeyTypeVersionRef
	KeyTypeStorageInfo
	KeyTypeAppendRef
	KeyTypeMultiKey
	KeyTypeLock
	KeyTypeSnapshotRef
	KeyTypeTombstone
	KeyTypeAppendData
	KeyTypeLog
	KeyTypePartition
	KeyTypeOffset
	KeyTypeBackupSnapshotRef
	KeyTypeTombstoneAll
	KeyTypeLibraryConfig
	KeyTypeSnapshotTombstone
	KeyTypeLogCompacted
	KeyTypeColumnStats
	KeyTypeUndefined
)

var keyTypeInfo = [...]struct {
	name   string
	folder string
}{
	KeyTypeStreamGroup:       {"STREAM_GROUP", "g"},
	KeyTypeGeneration:        {"GENERATION", "G"},
	KeyTypeTableData:         {"TABLE_DATA", "d"},
	KeyTypeTableIndex:        {"TABLE_INDEX", "i"},
	KeyTypeVersion:           {"VERSION", "V"},
	KeyTypeVersionJournal:    {"VERSION_JOURNAL", "v"},
	KeyTypeMetrics:           {"METRICS", "M"},
	KeyTypeSnapshot:          {"SNAPSHOT", "s"},
	KeyTypeSymbolList:        {"SYMBOL_LIST", "l"},
	KeyTypeVersionRef:        {"VERSION_REF", "r"},
	KeyTypeStorageInfo:       {"STORAGE_INFO", "h"},
	KeyTypeAppendRef:         {"APPEND_REF", "a"},
	KeyTypeMultiKey:          {"MULTI_KEY", "m"},
	KeyTypeLock:              {"LOCK", "x"},
	KeyTypeSnapshotRef:       {"SNAPSHOT_REF", "tref"},
	KeyTypeTombstone:         {"TOMBSTONE", "X"},
	KeyTypeAppendData:        {"APPEND_DATA", "b"},
	KeyTypeLog:               {"LOG", "o"},
	KeyTypePartition:         {"PARTITION", "p"},
	KeyTypeOffset:            {"OFFSET", "f"},
	KeyTypeBackupSnapshotRef: {"BACKUP_SNAPSHOT_REF", "B"},
	KeyTypeTombstoneAll:      {"TOMBSTONE_ALL", "Y"},
	KeyTypeLibraryConfig:     {"LIBRARY_CONFIG", "C"},
	KeyTypeSnapshotTombstone: {"SNAPSHOT_TOMBSTONE", "S"},
	KeyTypeLogCompacted:      {"LOG_COMPACTED", "O"},
	KeyTypeColumnStats:       {"COLUMN_STATS", "c"},
	KeyTypeUndefined:         {"UNDEFINED", "u"},
}

// IsValid returns whether the key type is one of the enumerated values.
func (kt KeyType) IsValid() bool {
	return kt >= 0 && int(kt) < len(keyTypeInfo)
}

func (kt KeyType) String() string {
	if !kt.IsValid() {
		return fmt.Sprintf("KeyType(%d)", int(kt))
	}
	return keyTypeInfo[kt].name
}

// FolderName returns the short name of the folder in which objects
// with keys of this type are stored.
func (kt KeyType) FolderName() string {
	if !kt.IsValid() {
		panic(fmt.Sprintf("Invalid key type %d", int(kt)))
	}
	return keyTypeInfo[kt].folder
}

// KeyTypes returns all valid key types.
func KeyTypes() []KeyType {
	keyTypes := make([]KeyType, 0, len(keyTypeInfo))
	for kt := range keyTypeInfo {
		keyTypes = append(keyTypes, KeyType(kt))
	}
	return keyTypes
}

// ParseKeyType returns the key type whose display name (e.g.,
// "TABLE_DATA") is provided.
func ParseKeyType(name string) (KeyType, error) {
	for kt, info := range keyTypeInfo {
		if info.name == name {
			return KeyType(kt), nil
		}
	}
	return KeyTypeUndefined, status.Errorf(codes.InvalidArgument, "Unknown key type %#v", name)
}
