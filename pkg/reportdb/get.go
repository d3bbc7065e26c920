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

package reportdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fwscope/fwscope/pkg/reportdb/helpers"
	"github.com/fwscope/fwscope/pkg/types"
)

// cacheRoleReportJSON is the objcache role the serialized report
// document is stored under.
const cacheRoleReportJSON = "report-json"

// GetReport returns the entry with the given id.
//
// Returns (nil, nil) if there is no such entry.
func (rdb *ReportDB) GetReport(ctx context.Context, id string) (*ReportEntry, error) {
	var entry ReportEntry
	_, columns, err := helpers.GetValuesAndColumns(&entry, nil)
	if err != nil {
		return nil, ErrUnableToQuery{Err: fmt.Errorf("unable to gather column names: %w", err)}
	}

	query := fmt.Sprintf("SELECT %s FROM `report_entries` WHERE `id` = ?", constructColumns("", columns))
	if err := rdb.DB.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, ErrUnableToQuery{Err: fmt.Errorf("unable to query report '%s': %w", id, err)}
	}
	return &entry, nil
}

// FindLatestReportJSON returns the serialized report document of the
// most recent entry for the image.
//
// Returns (nil, nil) if no report for this image is stored.
func (rdb *ReportDB) FindLatestReportJSON(ctx context.Context, imageID types.ImageID) ([]byte, error) {
	if rdb.Cache != nil {
		if cached, found := rdb.Cache.Get(ctx, imageID, cacheRoleReportJSON); found {
			return cached, nil
		}
	}

	var reportJSON []byte
	query := "SELECT `report_json` FROM `report_entries` WHERE `image_id` = ? ORDER BY `ts_insert` DESC LIMIT 1"
	if err := rdb.DB.GetContext(ctx, &reportJSON, query, imageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, ErrUnableToQuery{Err: fmt.Errorf("unable to query reports of image %s: %w", imageID, err)}
	}

	if rdb.Cache != nil {
		rdb.Cache.Set(ctx, imageID, cacheRoleReportJSON, reportJSON)
	}
	return reportJSON, nil
}

// ListReports returns up to limit newest entries, without the report
// documents.
func (rdb *ReportDB) ListReports(ctx context.Context, limit uint) ([]ReportEntry, error) {
	_, columns, err := helpers.GetValuesAndColumns(&ReportEntry{}, func(fieldName string, value interface{}) bool {
		return fieldName == "ReportJSON"
	})
	if err != nil {
		return nil, ErrUnableToQuery{Err: fmt.Errorf("unable to gather column names: %w", err)}
	}

	query := fmt.Sprintf(
		"SELECT %s FROM `report_entries` ORDER BY `ts_insert` DESC LIMIT %d",
		constructColumns("", columns), limit,
	)
	var entries []ReportEntry
	if err := rdb.DB.SelectContext(ctx, &entries, query); err != nil {
		return nil, ErrUnableToQuery{Err: fmt.Errorf("unable to list reports: %w", err)}
	}
	return entries, nil
}
