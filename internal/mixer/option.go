package mixer

// Option is one `[Option <alsa-name>:<option>]` stanza (§6): a named
// permutation choice for a SELECT-style switch or enumeration element.
type Option struct {
	AlsaName    string
	Name        string // short tag, §6 "name = <short-tag>"
	Priority    uint32
	Required    Requirement
	RequireAny  bool
	RequireAbsent bool

	// hwIndex is the hardware enum index this option resolves to, or -1 if
	// the hardware doesn't offer it (§4.2 "look up and record its hardware
	// index (-1 if absent)").
	hwIndex int

	present bool

	// uniqueName is the display name after path-set deduplication (§4.2
	// "make option names unique (append -N)").
	uniqueName string
}

// DisplayName returns the deduplicated name options are exposed under,
// falling back to Name before condensation assigns one.
func (o *Option) DisplayName() string {
	if o.uniqueName != "" {
		return o.uniqueName
	}
	return o.Name
}

// Present reports whether this option resolved to a real hardware index
// during probing.
func (o *Option) Present() bool { return o.present }
