package toolchain

// IsBelow reports whether v is older than target. An absent version orders
// before everything.
func IsBelow(v *Version, target Version) bool {
	if v == nil {
		return true
	}

	return v.Less(target)
}

// Policy holds the minimum toolchain and SDK versions a build requires.
type Policy struct {
	MinTool Version
	MinSDK  Version
}

// DefaultPolicy returns the policy with the built-in minimums.
func DefaultPolicy() Policy {
	return Policy{MinTool: DefaultMinTool, MinSDK: DefaultMinSDK}
}

// NeedsToolUpgrade reports whether the tool must be upgraded first.
func (p Policy) NeedsToolUpgrade(s Status) bool {
	return IsBelow(s.Tool, p.MinTool)
}

// NeedsSDKInstall reports whether an SDK must be installed before building.
func (p Policy) NeedsSDKInstall(s Status) bool {
	return s.SDK == nil || IsBelow(s.SDK, p.MinSDK)
}

// Decision is the outcome of evaluating a Policy against one probe.
type Decision struct {
	Status      Status
	UpgradeTool bool
	InstallSDK  bool
}

// Ready reports whether no remedial step is required.
func (d Decision) Ready() bool {
	return !d.UpgradeTool && !d.InstallSDK
}

// Decide evaluates both gates for s.
func (p Policy) Decide(s Status) Decision {
	return Decision{
		Status:      s,
		UpgradeTool: p.NeedsToolUpgrade(s),
		InstallSDK:  p.NeedsSDKInstall(s),
	}
}
