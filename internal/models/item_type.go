package models

// ItemType distinguishes the two kinds of playable media items.
// It is resolved once when an item is looked up; everything downstream
// of the catalog works against the same (ItemType, ID) pair.
type ItemType string

const (
	ItemTypeMovie   ItemType = "movie"
	ItemTypeEpisode ItemType = "episode"
)

// ParseItemType validates and returns an ItemType.
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case ItemTypeMovie, ItemTypeEpisode:
		return ItemType(s), nil
	default:
		return "", ErrInvalidItemType
	}
}

// Valid reports whether the item type is one of the known kinds.
func (t ItemType) Valid() bool {
	return t == ItemTypeMovie || t == ItemTypeEpisode
}

// String returns the string form of the item type.
func (t ItemType) String() string {
	return string(t)
}
