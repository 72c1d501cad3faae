package model

// Method is an HTTP method an operation can be bound to
type Method string

const (
	MethodGet    Method = "get"
	MethodPut    Method = "put"
	MethodPost   Method = "post"
	MethodDelete Method = "delete"
	MethodHead   Method = "head"
)

// Methods lists every recognized method
var Methods = []Method{MethodGet, MethodPut, MethodPost, MethodDelete, MethodHead}

// IsValidMethod reports whether key names a recognized method
func IsValidMethod(key string) bool {
	for _, m := range Methods {
		if string(m) == key {
			return true
		}
	}
	return false
}

func methodNames() []string {
	names := make([]string, len(Methods))
	for i, m := range Methods {
		names[i] = string(m)
	}
	return names
}

// Location is where a parameter is carried
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
)

// Locations lists every recognized parameter location
var Locations = []Location{LocationPath, LocationQuery, LocationHeader}

func locationNames() []string {
	names := make([]string, len(Locations))
	for i, l := range Locations {
		names[i] = string(l)
	}
	return names
}
