package webpubsub

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sio-contrib/webpubsub-adapter/adapter"
)

// buildFilter synthesizes the OData filter the service evaluates to select
// broadcast recipients: membership in any target room's group, minus
// membership in any excluded room's group.
//
// An empty target set means "every connection of the namespace" and is
// replaced by the namespace-wide group clause; an empty disjunction is
// never a valid filter.
func buildFilter(namespace string, rooms, except mapset.Set[adapter.Room]) string {
	var allow []string
	if rooms == nil || rooms.Cardinality() == 0 {
		allow = append(allow, "'"+groupName(namespace)+"' in groups")
	} else {
		rooms.Each(func(room adapter.Room) bool {
			allow = append(allow, "'"+roomGroupName(namespace, string(room))+"' in groups")
			return false
		})
	}

	var deny []string
	if except != nil {
		except.Each(func(room adapter.Room) bool {
			deny = append(deny, "not ('"+roomGroupName(namespace, string(room))+"' in groups)")
			return false
		})
	}

	switch {
	case len(allow) > 0 && len(deny) > 0:
		return "(" + strings.Join(allow, " or ") + ") and (" + strings.Join(deny, " and ") + ")"
	case len(allow) > 0:
		return strings.Join(allow, " or ")
	default:
		return strings.Join(deny, " and ")
	}
}
