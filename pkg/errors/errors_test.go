package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_WalksWrapChain(t *testing.T) {
	base := NotFound("Department not found")
	wrapped := fmt.Errorf("promote head: %w", base)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("期望 KindNotFound，实际=%v", got)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("未标记错误应为 KindInternal，实际=%v", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("%s: 期望 %d，实际 %d", kind, want, got)
		}
	}
}

func TestMessageOf_HidesInternalDetails(t *testing.T) {
	if got := MessageOf(Validation("Department ID required")); got != "Department ID required" {
		t.Errorf("实际=%q", got)
	}
	if got := MessageOf(errors.New("pq: connection refused")); got != "internal server error" {
		t.Errorf("内部错误不应透出细节，实际=%q", got)
	}
}

func TestError_IsMatchesKindAndMessage(t *testing.T) {
	err := fmt.Errorf("save: %w", Conflict("record was modified by another operation, please retry"))
	if !errors.Is(err, ErrOptimisticLock) {
		t.Error("期望 errors.Is 命中 ErrOptimisticLock")
	}
	if errors.Is(NotFound("x"), Validation("x")) {
		t.Error("不同类别不应相等")
	}
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := Wrap(KindInternal, cause, "update user")
	if !errors.Is(err, cause) {
		t.Error("Wrap 应保留底层错误")
	}
	if err.Error() != "update user: driver: bad connection" {
		t.Errorf("实际=%q", err.Error())
	}
}
