package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CallbackDataSeparator  = ":"
	CallbackDataLimitBytes = 64
)

// Callback tags. The payload after the separator is tag specific.
const (
	TagCoin       = "coin"      // coin:<coin id>
	TagPage       = "page"      // page:<index> of the top coins picker
	TagSearchPage = "spage"     // spage:<index> of the search results picker
	TagSearch     = "search"    // search
	TagConfirm    = "confirm"   // confirm
	TagInterval   = "interval"  // interval:set | interval:stop
	TagSchedule   = "sched"     // sched:daily | sched:days | sched:done | sched:clear
	TagDay        = "day"       // day:<0-6>, Sunday is 0
	TagChartCoin  = "chartcoin" // chartcoin:<coin id>
	TagChart      = "chart"     // chart:<coin id>:<days>
	TagNoop       = "noop"
)

const (
	ActionSet   = "set"
	ActionStop  = "stop"
	ActionDaily = "daily"
	ActionDays  = "days"
	ActionDone  = "done"
	ActionClear = "clear"
)

func EncodeCallback(unique, data string) (string, error) {
	if data == "" {
		if len(unique) > CallbackDataLimitBytes {
			return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(unique))
		}
		return unique, nil
	}

	payload := unique + CallbackDataSeparator + data
	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

func DecodeCallback(callbackData string) (unique, data string, err error) {
	callbackData = strings.TrimSpace(callbackData)
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	idx := strings.Index(callbackData, CallbackDataSeparator)
	if idx == -1 {
		return callbackData, "", nil
	}

	return callbackData[:idx], callbackData[idx+len(CallbackDataSeparator):], nil
}

// Fits reports whether unique and data encode within the callback size limit.
func Fits(unique, data string) bool {
	_, err := EncodeCallback(unique, data)
	return err == nil
}
