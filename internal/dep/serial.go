package dep

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"bake/internal/strutil"
)

// Sentinel lines of the full-serialization format. Field values may span
// multiple lines; each field runs until its terminator line.
const (
	endSymName     = "%%%ENDSYMNAME%%%"
	endSymValue    = "%%%ENDSYMVALUE%%%"
	endSymState    = "%%%ENDSYMSTATE%%%"
	endDepEdge     = "%%%ENDDEPEDGE%%%"
	endDepEdges    = "%%%ENDDEPEDGES%%%"
	endRevDepEdge  = "%%%ENDREVDEPEDGE%%%"
	endRevDepEdges = "%%%ENDREVDEPEDGES%%%"
	endDepListItem = "%%%ENDDEPLISTITEM%%%"
	endDepList     = "%%%ENDDEPLIST%%%"
	endDepListList = "%%%ENDDEPLISTLIST%%%"
	endRevDep      = "%%%ENDREVDEP%%%"
	endRevDepList  = "%%%ENDREVDEPLIST%%%"
	endSymbol      = "%%%ENDSYMBOL%%%"
	endSymbols     = "%%%ENDSYMBOLS%%%"
	endShadower    = "%%%ENDSHADOWER%%%"
	endShadowee    = "%%%ENDSHADOWEE%%%"
	endShadowers   = "%%%ENDSHADOWERS%%%"
)

// writeLine writes s followed by a newline, equivalent to fmt.Fprintln(w, s)
// but without tripping vet's printf-directive heuristic on sentinel strings
// that happen to contain "%".
func writeLine(w *bufio.Writer, s string) {
	io.WriteString(w, s)
	w.WriteByte('\n')
}

// Serialize writes the whole system to w in the sentinel-delimited full
// serialization format. Callbacks are not serialized. Output is
// deterministic: symbols and set-valued fields are emitted in sorted order.
func (s *System) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, name := range s.sortedNames() {
		writeSymbol(bw, s.symbols[name])
	}
	writeLine(bw, endSymbols)

	for _, shadowed := range sortedShadowerNames(s.shadowers) {
		owners := append([]string(nil), s.shadowers[shadowed]...)
		sort.Strings(owners)
		for _, owner := range owners {
			writeLine(bw, shadowed)
			writeLine(bw, endShadower)
			writeLine(bw, owner)
			writeLine(bw, endShadowee)
		}
	}
	writeLine(bw, endShadowers)

	return bw.Flush()
}

func writeSymbol(bw *bufio.Writer, sym *symbol) {
	field := func(value, terminator string) {
		writeLine(bw, value)
		writeLine(bw, terminator)
	}

	field(sym.name, endSymName)
	field(sym.value, endSymValue)
	field(strconv.Itoa(int(sym.state)), endSymState)

	for _, edge := range sortedKeys(sym.deps) {
		field(edge, endDepEdge)
	}
	writeLine(bw, endDepEdges)

	for _, edge := range sortedKeys(sym.revDeps) {
		field(edge, endRevDepEdge)
	}
	writeLine(bw, endRevDepEdges)

	for _, list := range sym.depLists {
		for _, item := range list {
			field(item, endDepListItem)
		}
		writeLine(bw, endDepList)
	}
	writeLine(bw, endDepListList)

	for _, rev := range sortedKeys(sym.revListSet) {
		field(rev, endRevDep)
	}
	writeLine(bw, endRevDepList)

	writeLine(bw, endSymbol)
}

func sortedShadowerNames(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Deserialize reads a full serialization back into a fresh System.
func Deserialize(r io.Reader) (*System, error) {
	br := bufio.NewReader(r)
	s := New()

	for {
		line, err := strutil.PeekLine(br)
		if err != nil {
			return nil, fmt.Errorf("dependency system serialization: %w", err)
		}
		if line == endSymbols {
			if _, err := strutil.ReadLine(br); err != nil {
				return nil, err
			}
			break
		}
		sym, err := readSymbol(br)
		if err != nil {
			return nil, err
		}
		s.symbols[sym.name] = sym
	}

	for {
		line, err := strutil.ReadLine(br)
		if err != nil {
			return nil, fmt.Errorf("dependency system serialization: %w", err)
		}
		if line == endShadowers {
			break
		}
		shadowed, err := continueField(br, line, endShadower)
		if err != nil {
			return nil, err
		}
		owner, err := readField(br, endShadowee)
		if err != nil {
			return nil, err
		}
		s.shadowers[shadowed] = append(s.shadowers[shadowed], owner)
	}

	return s, nil
}

// readField accumulates lines until the terminator line, joined by newlines.
func readField(br *bufio.Reader, terminator string) (string, error) {
	var b strings.Builder
	first := true
	for {
		line, err := strutil.ReadLine(br)
		if err != nil {
			return "", fmt.Errorf("reading field before %s: %w", terminator, err)
		}
		if line == terminator {
			return b.String(), nil
		}
		if !first {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		first = false
	}
}

// continueField behaves like readField with the first line already consumed.
func continueField(br *bufio.Reader, first, terminator string) (string, error) {
	rest, err := readField(br, terminator)
	if err != nil {
		return "", err
	}
	if rest == "" {
		return first, nil
	}
	return first + "\n" + rest, nil
}

// readSet reads (field itemTerminator)* listTerminator into a set.
func readSet(br *bufio.Reader, itemTerminator, listTerminator string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for {
		line, err := strutil.ReadLine(br)
		if err != nil {
			return nil, fmt.Errorf("reading set before %s: %w", listTerminator, err)
		}
		if line == listTerminator {
			return out, nil
		}
		item, err := continueField(br, line, itemTerminator)
		if err != nil {
			return nil, err
		}
		out[item] = struct{}{}
	}
}

func readSymbol(br *bufio.Reader) (*symbol, error) {
	name, err := readField(br, endSymName)
	if err != nil {
		return nil, err
	}
	value, err := readField(br, endSymValue)
	if err != nil {
		return nil, err
	}
	stateText, err := readField(br, endSymState)
	if err != nil {
		return nil, err
	}
	stateInt, err := strconv.Atoi(stateText)
	if err != nil || stateInt < int(NonBuilt) || stateInt > int(Valid) {
		return nil, fmt.Errorf("symbol %q: bad state %q", name, stateText)
	}

	sym := newSymbol(name, value, State(stateInt))

	if sym.deps, err = readSet(br, endDepEdge, endDepEdges); err != nil {
		return nil, err
	}
	if sym.revDeps, err = readSet(br, endRevDepEdge, endRevDepEdges); err != nil {
		return nil, err
	}

	var current []string
	var item strings.Builder
	itemOpen := false
	for {
		line, err := strutil.ReadLine(br)
		if err != nil {
			return nil, fmt.Errorf("reading dependency lists of %q: %w", name, err)
		}
		if line == endDepListList && !itemOpen {
			break
		}
		if line == endDepList && !itemOpen {
			sym.depLists = append(sym.depLists, current)
			current = nil
			continue
		}
		if line == endDepListItem {
			current = append(current, item.String())
			item.Reset()
			itemOpen = false
			continue
		}
		if itemOpen {
			item.WriteByte('\n')
		}
		item.WriteString(line)
		itemOpen = true
	}

	if sym.revListSet, err = readSet(br, endRevDep, endRevDepList); err != nil {
		return nil, err
	}

	line, err := strutil.ReadLine(br)
	if err != nil {
		return nil, err
	}
	if line != endSymbol {
		return nil, fmt.Errorf("symbol %q: expected %s, got %q", name, endSymbol, line)
	}
	return sym, nil
}
