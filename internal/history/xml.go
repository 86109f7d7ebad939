package history

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/aprx-explorer/internal/ticks"
)

const (
	processElement = "process"
	startTicksAttr = "ticks"
	endTicksAttr   = "ticks2"
)

// DeriveTimes finds the first process element in a propertiesXML fragment and
// converts its ticks/ticks2 attributes into an interval.
func DeriveTimes(propertiesXML string) (ticks.Interval, error) {
	start, end, err := processTicks(propertiesXML)
	if err != nil {
		return ticks.Interval{}, err
	}

	iv, err := ticks.DeriveInterval(start, end)
	if err != nil {
		return ticks.Interval{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return iv, nil
}

// processTicks returns the raw tick attributes of the first process element.
func processTicks(propertiesXML string) (start, end string, err error) {
	dec := xml.NewDecoder(strings.NewReader(propertiesXML))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", "", fmt.Errorf("%w: no %s element in propertiesXML", ErrMalformedRecord, processElement)
		}
		if err != nil {
			return "", "", fmt.Errorf("%w: parse propertiesXML: %w", ErrMalformedRecord, err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != processElement {
			continue
		}

		var haveStart, haveEnd bool
		for _, attr := range el.Attr {
			switch attr.Name.Local {
			case startTicksAttr:
				start, haveStart = attr.Value, true
			case endTicksAttr:
				end, haveEnd = attr.Value, true
			}
		}
		if !haveStart {
			return "", "", fmt.Errorf("%w: %s element has no %s attribute", ErrMalformedRecord, processElement, startTicksAttr)
		}
		if !haveEnd {
			return "", "", fmt.Errorf("%w: %s element has no %s attribute", ErrMalformedRecord, processElement, endTicksAttr)
		}
		return start, end, nil
	}
}
