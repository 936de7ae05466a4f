package models

// UnknownAttack is the display string for a class id outside ClassLabels.
const UnknownAttack = "Unknown Attack"

// ClassLabels maps classifier output ids to attack categories. All device models
// share the same enumeration.
var ClassLabels = map[int]string{
	0: "Normal",
	1: "Backdoor",
	2: "DDoS",
	3: "Injection",
	4: "Password Attack",
	5: "Ransomware",
	6: "Scanning",
	7: "XSS",
}

// DecodeLabel returns the display string for a class id.
func DecodeLabel(id int) string {
	if label, ok := ClassLabels[id]; ok {
		return label
	}
	return UnknownAttack
}

// DisplayLabels returns every string a prediction can decode to, in class order,
// followed by UnknownAttack.
func DisplayLabels() []string {
	out := make([]string, 0, len(ClassLabels)+1)
	for id := 0; id < len(ClassLabels); id++ {
		out = append(out, ClassLabels[id])
	}
	return append(out, UnknownAttack)
}
