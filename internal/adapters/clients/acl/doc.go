// Package acl is the anti-corruption layer between upstream JSON:API services and
// the domain.
//
// Nothing outside this package sees an *http.Response, a raw body or a client-level
// error. Adapters translate:
//
//   - transport failures and an open circuit into [domain.TransportError]
//   - statuses that classify to an error kind into [domain.ResponseError]
//   - every other response into a decoded [domain.Document]
//
// # Creating an Adapter
//
// Embed [BaseAdapter] and use [BaseAdapter.Fetch] for requests. Decoded resources are
// plain maps; use [Bind] or [BindSlice] to read them into typed, unexported structs
// when an adapter needs concrete fields:
//
//	type rosterAdapter struct {
//	    acl.BaseAdapter
//	}
//
//	type player struct {
//	    ID       string `json:"id"`
//	    Name     string `json:"name"`
//	    Sponsors []struct {
//	        ID string `json:"id"`
//	    } `json:"sponsors"`
//	}
//
//	func (a *rosterAdapter) Players(ctx context.Context) ([]player, error) {
//	    doc, _, err := a.Fetch(ctx, "/players", "list players")
//	    if err != nil {
//	        return nil, err // already a domain error
//	    }
//
//	    return acl.BindSlice[player](doc.Data)
//	}
//
// [ResourceClient] is the general-purpose adapter used by the gateway.
package acl
