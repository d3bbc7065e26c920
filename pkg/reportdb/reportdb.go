// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

// Package reportdb persists analysis reports in an RDBMS (metadata in
// columns, the report document as JSON).
package reportdb

import (
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/dummy"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	"github.com/fwscope/fwscope/pkg/objcache"
	"github.com/fwscope/fwscope/pkg/types"
)

// ReportEntry is one row of the `report_entries` table.
type ReportEntry struct {
	ID         string        `db:"id"`
	ImageID    types.ImageID `db:"image_id"`
	SetVersion string        `db:"set_version"`
	ReportJSON []byte        `db:"report_json"`
	TSInsert   time.Time     `db:"ts_insert"`
}

// ReportDB stores analysis reports.
type ReportDB struct {
	DB     *sqlx.DB
	Cache  *objcache.ImageCache
	Logger logger.Logger
}

// New returns an instance of ReportDB.
//
// A nil cache disables memoization; a nil logger discards log output.
func New(
	rdbmsDriver string,
	rdbmsDSN string,
	cache *objcache.ImageCache,
	log logger.Logger,
) (*ReportDB, error) {
	if log == nil {
		log = dummy.New()
	}
	db, err := sqlx.Open(rdbmsDriver, rdbmsDSN)
	if err != nil {
		return nil, fmt.Errorf("unable to open a connection to the RDBMS: %w", err)
	}
	return &ReportDB{
		DB:     db,
		Cache:  cache,
		Logger: log,
	}, nil
}

// Close closes the connection to the RDBMS and releases the cache.
func (rdb *ReportDB) Close() error {
	result := multierror.Append((error)(nil), rdb.DB.Close())
	if rdb.Cache != nil {
		result = multierror.Append(result, rdb.Cache.Close())
	}
	return result.ErrorOrNil()
}
