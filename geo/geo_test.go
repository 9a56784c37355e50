package geo

import (
	"math"
	"testing"
)

func TestToPlanarAtReferencePointIsOrigin(t *testing.T) {
	p := ToPlanar(RefLon, RefLat)
	if p.X != 0 || p.Y != 0 {
		t.Fatalf("expected the reference point to map to the planar origin, got %+v", p)
	}
}

func TestToGeoInvertsToPlanar(t *testing.T) {
	lon, lat := 11.60, 48.15
	p := ToPlanar(lon, lat)
	gotLon, gotLat := ToGeo(p)

	if math.Abs(gotLon-lon) > 1e-9 || math.Abs(gotLat-lat) > 1e-9 {
		t.Fatalf("expected ToGeo(ToPlanar(lon,lat)) to round-trip, got (%v,%v) want (%v,%v)", gotLon, gotLat, lon, lat)
	}
}

func TestDistanceIsSymmetricAndZeroForIdenticalPoints(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}

	if d := Distance(a, b); d != 5 {
		t.Fatalf("expected a 3-4-5 triangle distance of 5, got %v", d)
	}
	if Distance(a, b) != Distance(b, a) {
		t.Fatalf("expected Distance to be symmetric")
	}
	if Distance(a, a) != 0 {
		t.Fatalf("expected zero distance between identical points")
	}
}
