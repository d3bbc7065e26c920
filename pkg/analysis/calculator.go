package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	lru "github.com/hashicorp/golang-lru"

	"github.com/fwscope/fwscope/pkg/ifr"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/lockmap"
	"github.com/fwscope/fwscope/pkg/scan"
	"github.com/fwscope/fwscope/pkg/uefi"
)

// DefaultCalculatorCacheSize is how many images worth of derived data
// the Calculator keeps across runs.
const DefaultCalculatorCacheSize = 16

// Calculator computes derived values shared by several passes (the
// parsed UEFI object, the discovered IFR package trees) at most once
// per image and hands them out read-only. Entries are LRU-cached
// across runs keyed by the image content hash, so repeated
// invocations in one process skip the expensive parses.
type Calculator struct {
	cache    *lru.TwoQueueCache
	singleOp *lockmap.LockMap
}

// imageData is the per-image slot. Each value is computed under the
// slot's once-guard; afterwards it is immutable.
type imageData struct {
	uefiOnce sync.Once
	uefi     *uefi.UEFI
	uefiErr  error

	ifrMu   sync.Mutex
	ifrPkgs map[image.RegionName][]ifr.Package

	scanMu sync.Mutex
	scans  map[string][]scan.Match
}

// NewCalculator returns a Calculator with room for cacheSize images.
func NewCalculator(cacheSize int) (*Calculator, error) {
	cache, err := lru.New2Q(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create the LRU cache of size %d: %w", cacheSize, err)
	}
	return &Calculator{
		cache:    cache,
		singleOp: lockmap.NewLockMap(),
	}, nil
}

func (calc *Calculator) slot(img *image.Image) *imageData {
	key := img.ID().String()

	unlocker := calc.singleOp.Lock(key)
	defer unlocker.Unlock()

	if v, found := calc.cache.Get(key); found {
		return v.(*imageData)
	}
	data := &imageData{
		ifrPkgs: map[image.RegionName][]ifr.Package{},
		scans:   map[string][]scan.Match{},
	}
	calc.cache.Add(key, data)
	return data
}

// UEFI returns the fiano-parsed firmware object for the image,
// computing it on first use.
func (calc *Calculator) UEFI(ctx context.Context, img *image.Image) (*uefi.UEFI, error) {
	data := calc.slot(img)
	data.uefiOnce.Do(func() {
		logger.FromCtx(ctx).Debugf("parsing the UEFI layout of image %s", img.ID())
		data.uefi, data.uefiErr = uefi.Parse(img.Bytes(), false)
	})
	if data.uefiErr != nil {
		return nil, ErrCalculate{What: "the UEFI layout", Err: data.uefiErr}
	}
	return data.uefi, nil
}

// IFRPackages returns the IFR packages discovered in a region,
// computing them on first use. The extra sources (setup-driver file
// bodies) participate only in the first computation for a region;
// all passes of a run see the same package list.
func (calc *Calculator) IFRPackages(ctx context.Context, img *image.Image, region image.RegionName, extra ...ifr.Source) []ifr.Package {
	data := calc.slot(img)

	data.ifrMu.Lock()
	defer data.ifrMu.Unlock()
	if pkgs, found := data.ifrPkgs[region]; found {
		return pkgs
	}
	logger.FromCtx(ctx).Debugf("discovering IFR packages in region '%s' of image %s", region, img.ID())
	pkgs := ifr.FindPackages(img, region, extra...)
	data.ifrPkgs[region] = pkgs
	return pkgs
}

// Matches returns the signature matches of a region, scanning it at
// most once per signature-set version. All passes consume the same
// scan, each filtering for its own kinds.
func (calc *Calculator) Matches(ctx context.Context, img *image.Image, set scan.Set, region image.RegionName) []scan.Match {
	data := calc.slot(img)
	key := set.Version() + "\x00" + string(region)

	data.scanMu.Lock()
	defer data.scanMu.Unlock()
	if matches, found := data.scans[key]; found {
		return matches
	}
	logger.FromCtx(ctx).Debugf("scanning region '%s' of image %s with signature set %s", region, img.ID(), set.Version())
	matches := set.Scan(img, region)
	data.scans[key] = matches
	return matches
}
