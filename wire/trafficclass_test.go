package wire

import "testing"

func TestTrafficClassRoundTrip(t *testing.T) {
	tc := TrafficClass{StoreCarryForward: true, ChannelOffload: true, DCCProfile: 37}
	got := ParseTrafficClass(tc.Byte())
	if got != tc {
		t.Errorf("ParseTrafficClass(Byte()) = %+v, want %+v", got, tc)
	}
}

func TestTrafficClassAccessCategoryMapping(t *testing.T) {
	cases := []struct {
		profile uint8
		want    AccessCategory
	}{
		{0, AccessVoice},
		{1, AccessVideo},
		{2, AccessBestEffort},
		{3, AccessBackground},
		{4, AccessVoice}, // wraps modulo 4
	}

	for _, c := range cases {
		tc := TrafficClass{DCCProfile: c.profile}
		if got := tc.AccessCategory(); got != c.want {
			t.Errorf("profile %d: AccessCategory() = %v, want %v", c.profile, got, c.want)
		}
	}
}

func TestAccessCategoryHigher(t *testing.T) {
	if !AccessVoice.Higher(AccessBackground) {
		t.Error("voice should be higher priority than background")
	}
	if AccessBackground.Higher(AccessVoice) {
		t.Error("background should not be higher priority than voice")
	}
}
