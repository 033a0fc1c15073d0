package wake

// TargetKind says how a Target's value is interpreted.
type TargetKind int

const (
	// TargetMAC is a literal hardware address.
	TargetMAC TargetKind = iota
	// TargetLookup is a name in the lookup table.
	TargetLookup
)

func (k TargetKind) String() string {
	switch k {
	case TargetMAC:
		return "mac"
	case TargetLookup:
		return "lookup"
	default:
		return "unknown"
	}
}

// Target is one wake request as given on the command line.
type Target struct {
	Kind  TargetKind
	Value string
}

func MAC(addr string) Target { return Target{Kind: TargetMAC, Value: addr} }

func Lookup(name string) Target { return Target{Kind: TargetLookup, Value: name} }

// Resolver turns targets into hardware addresses.
type Resolver struct {
	Table *LookupTable
}

func NewResolver(table *LookupTable) *Resolver {
	return &Resolver{Table: table}
}

// Resolve returns the address for target. Unknown lookup names give a
// *ResolutionError, malformed addresses a *FormatError.
func (r *Resolver) Resolve(target Target) (HardwareAddr, error) {
	switch target.Kind {
	case TargetLookup:
		addr, ok := r.Table.Lookup(target.Value)
		if !ok {
			return HardwareAddr{}, &ResolutionError{Name: target.Value}
		}
		return ParseHardwareAddr(addr)
	default:
		return ParseHardwareAddr(target.Value)
	}
}

// ResolveToken resolves a token that is either a table name or an address.
// A matching name takes precedence. An empty token selects the first table
// entry.
func (r *Resolver) ResolveToken(token string) (HardwareAddr, error) {
	if token == "" {
		name, _, ok := r.Table.First()
		if !ok {
			return HardwareAddr{}, &ResolutionError{Err: ErrNoDefault}
		}
		token = name
	}
	if addr, ok := r.Table.Lookup(token); ok {
		return ParseHardwareAddr(addr)
	}
	return ParseHardwareAddr(token)
}

// Default returns the target used when none is given: the first entry of
// the table.
func (r *Resolver) Default() (Target, error) {
	name, _, ok := r.Table.First()
	if !ok {
		return Target{}, &ResolutionError{Err: ErrNoDefault}
	}
	return Lookup(name), nil
}
