package domain

// CollectionName maps a profile kind to its vector collection. Entity types
// get separate collections so equal external ids can never collide on the
// derived point id.
func CollectionName(prefix string, k Kind) string {
	return prefix + string(k)
}
