// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakedb

// one row per token record
const recordTableSchema = `
create table if not exists stake_record (
	tokenID integer primary key,
	staked integer not null,
	firstStakedAt integer not null,
	lastStakedAt integer not null,
	accumulated integer not null
);
`
