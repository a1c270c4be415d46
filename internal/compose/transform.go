package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// VolumeMode selects how service volumes are isolated between instances.
type VolumeMode string

const (
	VolumesKeep           VolumeMode = "keep"
	VolumesRemove         VolumeMode = "remove"
	VolumesConvertToNamed VolumeMode = "convert-to-named"
)

// VolumeModes lists the accepted modes in help order.
var VolumeModes = []VolumeMode{VolumesRemove, VolumesKeep, VolumesConvertToNamed}

func (m VolumeMode) Valid() bool {
	for _, v := range VolumeModes {
		if m == v {
			return true
		}
	}
	return false
}

// ParseVolumeMode validates a user supplied mode.
func ParseVolumeMode(s string) (VolumeMode, error) {
	m := VolumeMode(s)
	if !m.Valid() {
		return "", volumeModeError(s)
	}
	return m, nil
}

func volumeModeError(s string) error {
	valid := make([]string, len(VolumeModes))
	for i, v := range VolumeModes {
		valid[i] = string(v)
	}
	return &ConfigError{Option: "volumes", Value: s, Valid: valid}
}

// TransformVolumes isolates service volumes according to mode and returns the
// variables the rewritten volume specs reference.
func TransformVolumes(doc *Document, mode VolumeMode) (*EnvVars, error) {
	env := NewEnvVars()
	switch mode {
	case VolumesKeep:
		return env, nil
	case VolumesRemove:
		for _, svc := range doc.services() {
			remove(svc.node, "volumes")
		}
		remove(doc.root, "volumes")
		return env, nil
	case VolumesConvertToNamed:
		for _, svc := range doc.services() {
			convertBindMounts(doc, svc, env)
		}
		return env, nil
	default:
		return nil, volumeModeError(string(mode))
	}
}

func convertBindMounts(doc *Document, svc service, env *EnvVars) {
	_, vols := lookup(svc.node, "volumes")
	if vols == nil || vols.Kind != yaml.SequenceNode {
		return
	}

	var mounts []*yaml.Node
	for _, item := range vols.Content {
		if isBindMount(item) {
			mounts = append(mounts, item)
		}
	}

	prefix := envPrefix(svc.name) + "_VOLUME"
	for i, item := range mounts {
		name := VolumeName(svc.name, item.Value)
		key := prefix
		if len(mounts) > 1 {
			key = fmt.Sprintf("%s_%d", prefix, i)
		}
		_, rest, _ := strings.Cut(item.Value, ":")
		setString(item, fmt.Sprintf("${%s:-%s}:%s", key, name, rest))
		registerVolume(doc, name)
		env.Set(key, name)
	}
}

func isBindMount(n *yaml.Node) bool {
	if n.Kind != yaml.ScalarNode || n.Value == "" || !strings.Contains(n.Value, ":") {
		return false
	}
	return n.Value[0] == '.' || n.Value[0] == '/'
}

// VolumeName derives the default named volume for a bind mount. It only
// depends on its inputs, so identical files yield identical names.
func VolumeName(service, spec string) string {
	sum := sha256.Sum256([]byte(service + ":" + spec))
	return service + "-" + hex.EncodeToString(sum[:])[:8]
}

func registerVolume(doc *Document, name string) {
	vols := ensureMapping(doc.root, "volumes")
	if i, _ := lookup(vols, name); i >= 0 {
		return
	}
	vols.Content = append(vols.Content, str(name), null())
}

// MakeMultiInstanceSafe parameterises published ports, drops container names
// and removes top-level networks. It returns the port variables with the
// container port as each default. Missing keys are left alone.
func MakeMultiInstanceSafe(doc *Document) *EnvVars {
	env := NewEnvVars()
	for _, svc := range doc.services() {
		rewritePorts(svc, env)
		remove(svc.node, "container_name")
	}

	_, networks := lookup(doc.root, "networks")
	if remove(doc.root, "networks") {
		removed := make(map[string]bool)
		if networks != nil && networks.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(networks.Content); i += 2 {
				removed[networks.Content[i].Value] = true
			}
		}
		for _, svc := range doc.services() {
			pruneNetworkRefs(svc.node, removed)
		}
	}
	return env
}

func rewritePorts(svc service, env *EnvVars) {
	_, ports := lookup(svc.node, "ports")
	if ports == nil || ports.Kind != yaml.SequenceNode {
		return
	}

	prefix := envPrefix(svc.name) + "_PORT"
	for i, item := range ports.Content {
		key := prefix
		if len(ports.Content) > 1 {
			key = fmt.Sprintf("%s_%d", prefix, i)
		}

		switch item.Kind {
		case yaml.ScalarNode:
			container := item.Value
			if idx := strings.LastIndex(container, ":"); idx >= 0 {
				container = container[idx+1:]
			}
			host, _, _ := strings.Cut(container, "/")
			setString(item, fmt.Sprintf("${%s:-%s}:%s", key, host, container))
			env.Set(key, host)
		case yaml.MappingNode:
			_, target := lookup(item, "target")
			if target == nil || target.Kind != yaml.ScalarNode {
				continue
			}
			published := fmt.Sprintf("${%s:-%s}", key, target.Value)
			if _, p := lookup(item, "published"); p != nil {
				setString(p, published)
			} else {
				item.Content = append(item.Content, str("published"), str(published))
			}
			env.Set(key, target.Value)
		}
	}
}

// pruneNetworkRefs drops service references to networks that no longer exist.
func pruneNetworkRefs(svc *yaml.Node, removed map[string]bool) {
	_, refs := lookup(svc, "networks")
	if refs == nil {
		return
	}
	dangling := func(name string) bool { return name != "default" && removed[name] }

	switch refs.Kind {
	case yaml.SequenceNode:
		kept := refs.Content[:0]
		for _, n := range refs.Content {
			if !dangling(n.Value) {
				kept = append(kept, n)
			}
		}
		refs.Content = kept
	case yaml.MappingNode:
		kept := refs.Content[:0]
		for i := 0; i+1 < len(refs.Content); i += 2 {
			if !dangling(refs.Content[i].Value) {
				kept = append(kept, refs.Content[i], refs.Content[i+1])
			}
		}
		refs.Content = kept
	default:
		return
	}
	if len(refs.Content) == 0 {
		remove(svc, "networks")
	}
}

// envPrefix upper-cases a service name into a valid variable name prefix.
func envPrefix(service string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(service) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
