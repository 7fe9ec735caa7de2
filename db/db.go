// Package db defines a namespaced key-value storage interface shared by
// the Merkle tree builder and the registry.
package db

// DB is a general interface to access storage data.
type DB interface {
	Type() string
	Set(namespace []byte, key []byte, value []byte) error
	Delete(namespace []byte, key []byte) error
	Get(namespace []byte, key []byte) ([]byte, bool, error)
	Exist(namespace []byte, key []byte) (bool, error)
	NewBulk() Bulk
	Close() error
}

// Bulk batches multiple writes into one commit.
type Bulk interface {
	Set(namespace []byte, key []byte, value []byte) error
	Delete(namespace []byte, key []byte) error
	Flush() error
	DiscardLast()
}

var (
	NamespaceAccountTrie         = []byte("at")
	NamespaceStrategyTrie        = []byte("st")
	NamespaceStakingPoolTrie     = []byte("spt")
	NamespaceTransitionTrie      = []byte("tt")
	NamespaceAssetIdToAddress    = []byte("aita")
	NamespaceAssetAddressToId    = []byte("aati")
	NamespaceStrategyIdToAddress = []byte("sita")
	NamespaceStrategyAddressToId = []byte("sati")

	EmptyKey  = []byte{}
	Separator = []byte("|")
)

// PrependNamespace qualifies a key with its namespace.
func PrependNamespace(namespace []byte, key []byte) []byte {
	if namespace != nil {
		return append(append(namespace, Separator...), key...)
	}
	return key
}

// ConvNilToBytes converts a nil byte slice to an empty one.
func ConvNilToBytes(byteArray []byte) []byte {
	if byteArray == nil {
		return []byte{}
	}
	return byteArray
}
