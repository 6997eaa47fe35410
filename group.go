package webpubsub

import "encoding/base64"

// `namespace` and `room` are concepts from Socket.IO.
// `group` is a concept from Azure Web PubSub: a flat, namespace-less
// connection set. Each (namespace, room) pair maps to its own group.
//
// The scheme is version-tagged so it can be migrated later. Segments are
// base64url encoded without padding: the output alphabet of RawURLEncoding
// cannot contain the delimiter, so distinct (namespace, room) pairs can
// never collide.
const (
	groupSchemeVersion = "0"
	groupDelimiter     = "~"
)

// groupName returns the namespace-wide group, the group every connection
// of the namespace is placed in for the lifetime of the connection.
func groupName(namespace string) string {
	return groupSchemeVersion + groupDelimiter + base64url(namespace)
}

// roomGroupName returns the group of a single room. The empty room name is
// a valid room, distinct from the namespace-wide group: its encoded segment
// is empty but the trailing delimiter is kept.
func roomGroupName(namespace, room string) string {
	return groupSchemeVersion + groupDelimiter + base64url(namespace) + groupDelimiter + base64url(room)
}

func base64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
