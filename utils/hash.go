package utils

// Name hash stored next to every RARC node and file entry
func RarcNameHash(str string) uint16 {
	var hash uint16
	for i := 0; i < len(str); i++ {
		hash = hash*3 + uint16(str[i])
	}
	return hash
}
